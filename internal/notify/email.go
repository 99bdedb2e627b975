// Package notify sends transactional email through the Resend HTTP API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultResendURL = "https://api.resend.com/emails"

// Mailer notifies a streamer about a new giveaway order. Implementations must
// be safe for concurrent use.
type Mailer interface {
	SendGiveawayOrderEmail(ctx context.Context, to, streamerName, productTitle string) error
}

type ResendMailer struct {
	apiKey       string
	from         string
	dashboardURL string
	baseURL      string
	http         *http.Client
}

func NewResendMailer(apiKey, from, dashboardURL string) *ResendMailer {
	return &ResendMailer{
		apiKey:       apiKey,
		from:         from,
		dashboardURL: dashboardURL,
		baseURL:      defaultResendURL,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *ResendMailer) SendGiveawayOrderEmail(ctx context.Context, to, streamerName, productTitle string) error {
	if m.apiKey == "" || m.from == "" {
		return fmt.Errorf("resend mailer not configured")
	}

	html := fmt.Sprintf(`<p>Hey %s,</p>
<p>du hast eine neue <strong>Giveaway-Bestellung</strong> in deinem Streamwear-Merchshop erhalten.</p>
<p><strong>Gewähltes Produkt:</strong> %s</p>
<p>Im Dashboard kannst du das Giveaway starten, deine Community teilnehmen lassen und den Gewinner ziehen:</p>
<p><a href="%s" target="_blank" rel="noopener noreferrer">➡ Zum Giveaway-Dashboard</a></p>
<p>Viel Spaß beim Verschenken im Stream 💜</p>`, streamerName, productTitle, m.dashboardURL)

	payload, err := json.Marshal(map[string]interface{}{
		"from":    m.from,
		"to":      []string{to},
		"subject": "Neue Giveaway-Bestellung 🎁",
		"html":    html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("resend: %s: %s", resp.Status, bytes.TrimSpace(body))
	}
	return nil
}
