package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"classcoins/internal/models"
)

// Client talks to the remote ledger that acts as the system of record.
// All methods return an error when the remote responds with a non-2xx
// status so callers can abort a reconciliation cycle cleanly.
type Client struct {
	baseURL string
	http    *http.Client
}

// Config holds the remote endpoint settings. TokenURL, ClientID and
// ClientSecret are optional; when set the client authenticates with
// OAuth2 client credentials, otherwise requests go out unauthenticated.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// NewClient creates a remote ledger client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.TokenURL != "" && cfg.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = cc.Client(ctx)
		httpClient.Timeout = timeout
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    httpClient,
	}
}

type remoteStudentDTO struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	GroupID      string           `json:"group_id"`
	Role         string           `json:"role"`
	Coins        int              `json:"coins"`
	TotalScore   int              `json:"total_score"`
	LastRewardID string           `json:"last_reward_id"`
	Reward       *remoteRewardDTO `json:"reward,omitempty"`
}

type remoteRewardDTO struct {
	ID      string   `json:"id"`
	Amount  int      `json:"amount"`
	Reasons []string `json:"reasons"`
}

type remoteTransactionDTO struct {
	ID         string `json:"id"`
	StudentID  string `json:"student_id"`
	SourceKind string `json:"source_kind"`
	Amount     int    `json:"amount"`
	Status     string `json:"status"`
	Score      int    `json:"score"`
	Note       string `json:"note"`
	CreatedAt  int64  `json:"created_at"`
}

// FetchStudents retrieves the authoritative student roster, including
// any pending reward descriptor attached to each student.
func (c *Client) FetchStudents(ctx context.Context) ([]models.RemoteStudent, error) {
	var dtos []remoteStudentDTO
	if err := c.get(ctx, "/api/students", &dtos); err != nil {
		return nil, fmt.Errorf("fetching remote students: %w", err)
	}

	students := make([]models.RemoteStudent, 0, len(dtos))
	for _, d := range dtos {
		rs := models.RemoteStudent{
			Student: models.Student{
				ID:           d.ID,
				Name:         d.Name,
				GroupID:      d.GroupID,
				Role:         models.Role(d.Role),
				Coins:        d.Coins,
				TotalScore:   d.TotalScore,
				LastRewardID: d.LastRewardID,
			},
		}
		if d.Reward != nil {
			rs.Reward = &models.RemoteReward{
				ID:      d.Reward.ID,
				Amount:  d.Reward.Amount,
				Reasons: d.Reward.Reasons,
			}
		}
		students = append(students, rs)
	}
	return students, nil
}

// FetchTransactionLog retrieves the full remote transaction log.
func (c *Client) FetchTransactionLog(ctx context.Context) ([]models.Transaction, error) {
	var dtos []remoteTransactionDTO
	if err := c.get(ctx, "/api/transactions", &dtos); err != nil {
		return nil, fmt.Errorf("fetching remote transactions: %w", err)
	}

	txns := make([]models.Transaction, 0, len(dtos))
	for _, d := range dtos {
		txns = append(txns, models.Transaction{
			ID:         d.ID,
			StudentID:  d.StudentID,
			SourceKind: models.SourceKind(d.SourceKind),
			Amount:     d.Amount,
			Status:     models.Status(d.Status),
			Score:      d.Score,
			Note:       d.Note,
			Synced:     true,
			CreatedAt:  time.Unix(d.CreatedAt, 0).UTC(),
		})
	}
	return txns, nil
}

// WriteStudent pushes updated student fields to the remote roster.
func (c *Client) WriteStudent(ctx context.Context, student models.Student) error {
	dto := remoteStudentDTO{
		ID:           student.ID,
		Name:         student.Name,
		GroupID:      student.GroupID,
		Role:         string(student.Role),
		Coins:        student.Coins,
		TotalScore:   student.TotalScore,
		LastRewardID: student.LastRewardID,
	}
	path := "/api/students/" + url.PathEscape(student.ID)
	if err := c.send(ctx, http.MethodPut, path, dto, nil); err != nil {
		return fmt.Errorf("writing remote student %s: %w", student.ID, err)
	}
	return nil
}

// AppendTransaction appends a locally created transaction to the remote
// log. The remote treats the transaction ID as idempotency key, so
// re-sending after an uncertain failure is safe.
func (c *Client) AppendTransaction(ctx context.Context, txn models.Transaction) error {
	dto := remoteTransactionDTO{
		ID:         txn.ID,
		StudentID:  txn.StudentID,
		SourceKind: string(txn.SourceKind),
		Amount:     txn.Amount,
		Status:     string(txn.Status),
		Score:      txn.Score,
		Note:       txn.Note,
		CreatedAt:  txn.CreatedAt.Unix(),
	}
	path := "/api/students/" + url.PathEscape(txn.StudentID) + "/transactions"
	if err := c.send(ctx, http.MethodPost, path, dto, nil); err != nil {
		return fmt.Errorf("appending remote transaction %s: %w", txn.ID, err)
	}
	return nil
}

// ClearReward acknowledges a delivered reward on the remote side.
func (c *Client) ClearReward(ctx context.Context, studentID, rewardID string) error {
	path := "/api/students/" + url.PathEscape(studentID) + "/reward"
	q := url.Values{"reward_id": []string{rewardID}}
	if err := c.send(ctx, http.MethodDelete, path+"?"+q.Encode(), nil, nil); err != nil {
		return fmt.Errorf("clearing remote reward for %s: %w", studentID, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.send(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("remote returned %d: %s", resp.StatusCode, string(snippet))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
