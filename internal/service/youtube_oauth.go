package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/rodrigueslp/ca-youtube-go/internal/domain"
	"github.com/rodrigueslp/ca-youtube-go/pkg/errors"
)

// YouTubeOAuthClient reads statistics for channels the authorized account
// owns. Token lifecycle beyond "exchange once, persist to disk" is out of
// scope.
type YouTubeOAuthClient struct {
	service         *youtube.Service
	config          *oauth2.Config
	token           *oauth2.Token
	tokenFile       string
	credentialsFile string
	logger          *zap.Logger
}

func NewYouTubeOAuthClient(credentialsFile, tokenFile string, logger *zap.Logger) (*YouTubeOAuthClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	credBytes, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(credBytes, youtube.YoutubeReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	client := &YouTubeOAuthClient{
		config:          config,
		tokenFile:       tokenFile,
		credentialsFile: credentialsFile,
		logger:          logger,
	}

	token, err := loadToken(tokenFile)
	if err != nil {
		logger.Warn("No existing OAuth token found, authorization required",
			zap.String("file", tokenFile))
		return client, nil
	}

	ctx := context.Background()
	ytService, err := youtube.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	client.service = ytService
	client.token = token

	logger.Info("YouTube OAuth client initialized",
		zap.Bool("authenticated", true))

	return client, nil
}

// Authorize runs the interactive code-exchange flow and persists the token.
func (yo *YouTubeOAuthClient) Authorize(ctx context.Context) error {
	if yo == nil {
		return fmt.Errorf("client not initialized")
	}

	authURL := yo.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)

	yo.logger.Info("Authorization required")
	fmt.Println("\n=== YouTube API Authorization ===")
	fmt.Println("Go to the following link in your browser:")
	fmt.Println(authURL)
	fmt.Println("\nAfter authorization, enter the code here:")

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return fmt.Errorf("unable to read authorization code: %w", err)
	}

	token, err := yo.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("unable to retrieve token: %w", err)
	}

	if err := saveToken(yo.tokenFile, token); err != nil {
		return fmt.Errorf("unable to save token: %w", err)
	}

	yo.token = token

	ytService, err := youtube.NewService(ctx, option.WithHTTPClient(yo.config.Client(ctx, token)))
	if err != nil {
		return fmt.Errorf("failed to create YouTube service: %w", err)
	}

	yo.service = ytService

	yo.logger.Info("YouTube OAuth authorization complete",
		zap.String("token_file", yo.tokenFile))

	return nil
}

func (yo *YouTubeOAuthClient) IsAuthorized() bool {
	return yo != nil && yo.service != nil && yo.token != nil
}

// MyChannels lists the channels owned by the authorized account with
// current statistics.
func (yo *YouTubeOAuthClient) MyChannels(ctx context.Context) ([]*domain.ChannelStats, error) {
	if !yo.IsAuthorized() {
		return nil, errors.NewUpstreamError("YouTube OAuth not authorized", "channels.list", nil)
	}

	call := yo.service.Channels.List([]string{"statistics", "snippet"}).Mine(true)
	response, err := call.Context(ctx).Do()
	if err != nil {
		return nil, errors.NewUpstreamError("owned channels fetch failed", "channels.list", err)
	}

	stats := make([]*domain.ChannelStats, 0, len(response.Items))
	for _, item := range response.Items {
		stats = append(stats, &domain.ChannelStats{
			ChannelID:       item.Id,
			Title:           item.Snippet.Title,
			Description:     item.Snippet.Description,
			SubscriberCount: item.Statistics.SubscriberCount,
			VideoCount:      item.Statistics.VideoCount,
			ViewCount:       item.Statistics.ViewCount,
			FetchedAt:       time.Now(),
		})
	}

	return stats, nil
}

func loadToken(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(token)
	return token, err
}

func saveToken(file string, token *oauth2.Token) error {
	f, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}
