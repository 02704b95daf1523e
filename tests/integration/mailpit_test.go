//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// MailpitClient reads the Mailpit inbox over its REST API.
type MailpitClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewMailpitClient(host string, port int) *MailpitClient {
	return &MailpitClient{
		baseURL:    fmt.Sprintf("http://%s:%d/api/v1", host, port),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type MailpitAddress struct {
	Address string `json:"Address"`
	Name    string `json:"Name"`
}

// MailpitMessage is a delivered message. Text is only filled by Message.
type MailpitMessage struct {
	ID      string           `json:"ID"`
	From    MailpitAddress   `json:"From"`
	To      []MailpitAddress `json:"To"`
	Subject string           `json:"Subject"`
	Text    string           `json:"Text"`
}

func (c *MailpitClient) getJSON(path string, out any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Recipient returns the messages addressed to email.
func (c *MailpitClient) Recipient(email string) ([]MailpitMessage, error) {
	var result struct {
		Messages []MailpitMessage `json:"messages"`
	}
	if err := c.getJSON("/search?query="+url.QueryEscape("to:"+email), &result); err != nil {
		return nil, err
	}
	return result.Messages, nil
}

// Message returns a single message including its plain text body.
func (c *MailpitClient) Message(id string) (*MailpitMessage, error) {
	var msg MailpitMessage
	if err := c.getJSON("/message/"+id, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteAllMessages empties the inbox.
func (c *MailpitClient) DeleteAllMessages() error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+"/messages", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete messages: status %d", resp.StatusCode)
	}
	return nil
}

// WaitForRecipient polls until email has received at least count messages.
func (c *MailpitClient) WaitForRecipient(email string, count int, timeout time.Duration) ([]MailpitMessage, error) {
	deadline := time.Now().Add(timeout)
	for {
		messages, err := c.Recipient(email)
		if err == nil && len(messages) >= count {
			return messages, nil
		}
		if time.Now().After(deadline) {
			if err != nil {
				return nil, fmt.Errorf("waiting for mail to %s: %w", email, err)
			}
			return messages, fmt.Errorf("waiting for mail to %s: got %d of %d", email, len(messages), count)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
