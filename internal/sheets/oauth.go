package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

// DefaultCallbackAddr is where the OAuth2 redirect is received.
const DefaultCallbackAddr = "localhost:8080"

// OAuth2Config holds OAuth2 configuration.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	TokenFile    string // Where to save the token
	CallbackAddr string
	Timeout      time.Duration
}

func (c OAuth2Config) oauth() *oauth2.Config {
	addr := c.CallbackAddr
	if addr == "" {
		addr = DefaultCallbackAddr
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "http://" + addr + "/callback",
		Scopes:       []string{sheets.SpreadsheetsScope},
	}
}

// callbackHandler forwards the authorization code, or an error when the
// redirect carries none.
func callbackHandler(state string, codeChan chan<- string, errorChan chan<- error) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		code := query.Get("code")
		if code == "" || query.Get("state") != state {
			select {
			case errorChan <- fmt.Errorf("no authorization code received"):
			default:
			}
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprint(w, `<html><body>
				<h1>Falha na autenticação</h1>
				<p>Nenhum código de autorização recebido. Tente novamente.</p>
			</body></html>`)
			return
		}

		select {
		case codeChan <- code:
		default:
		}
		_, _ = fmt.Fprint(w, `<html><body>
			<h1>Autenticação concluída</h1>
			<p>Você já pode fechar esta janela e voltar ao terminal.</p>
		</body></html>`)
	})
	return mux
}

// AuthenticateOAuth2Interactive performs the OAuth2 flow interactively.
func AuthenticateOAuth2Interactive(ctx context.Context, config OAuth2Config) (*oauth2.Token, error) {
	oauthConfig := config.oauth()
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	const state = "seguros-sheets"
	codeChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	addr := config.CallbackAddr
	if addr == "" {
		addr = DefaultCallbackAddr
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	server := &http.Server{
		Handler:           callbackHandler(state, codeChan, errorChan),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if serveErr := server.Serve(listener); !errors.Is(serveErr, http.ErrServerClosed) {
			select {
			case errorChan <- fmt.Errorf("callback server failed: %w", serveErr):
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			slog.Warn("Error shutting down callback server", "error", shutdownErr)
		}
	}()

	// Offline access so Google returns a refresh token.
	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	slog.Info("Google Sheets authentication required")
	slog.Info("Please visit this URL to authenticate", "url", authURL)

	var authCode string
	select {
	case authCode = <-codeChan:
		slog.Info("Received authorization code")
	case err := <-errorChan:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, fmt.Errorf("authentication timeout: no response received within %s", timeout)
	}

	token, err := oauthConfig.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if config.TokenFile != "" {
		if err := saveToken(config.TokenFile, token); err != nil {
			slog.Warn("Failed to save token to file", "error", err, "file", config.TokenFile)
		} else {
			slog.Info("Token saved successfully", "file", config.TokenFile)
		}
	}

	return token, nil
}

// LoadToken loads a token from file.
func LoadToken(tokenFile string) (*oauth2.Token, error) {
	data, err := os.ReadFile(tokenFile) // #nosec G304
	if err != nil {
		return nil, err
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return token, nil
}

// saveToken saves a token to file.
func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// GetOrCreateToken returns the saved token when it carries a refresh token,
// and runs the interactive flow otherwise.
func GetOrCreateToken(ctx context.Context, config OAuth2Config) (*oauth2.Token, error) {
	if config.TokenFile != "" {
		token, err := LoadToken(config.TokenFile)
		if err == nil && token.RefreshToken != "" {
			slog.Info("Loaded existing token from file", "file", config.TokenFile)
			return token, nil
		}
		slog.Info("No existing token found, starting OAuth2 flow")
	}

	return AuthenticateOAuth2Interactive(ctx, config)
}
