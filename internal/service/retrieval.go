package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nivaan/loanpilot/internal/domain"
)

// RetrievalService answers free-text policy questions by calling the
// retrieval collaborator over HTTP. Answers may arrive as HTML fragments;
// they are flattened to plain text before being surfaced.
type RetrievalService struct {
	baseURL    string
	httpClient *http.Client
}

func NewRetrievalService(baseURL string, timeout time.Duration) *RetrievalService {
	return &RetrievalService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type retrievalRequest struct {
	Query string `json:"query"`
}

type retrievalResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Answer implements domain.Retriever.
func (s *RetrievalService) Answer(ctx context.Context, query string) (domain.RetrievalAnswer, error) {
	payload, err := json.Marshal(retrievalRequest{Query: query})
	if err != nil {
		return domain.RetrievalAnswer{}, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/query", bytes.NewReader(payload))
	if err != nil {
		return domain.RetrievalAnswer{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.RetrievalAnswer{}, fmt.Errorf("%w: %v", domain.ErrCollaboratorTimeout, err)
		}
		return domain.RetrievalAnswer{}, fmt.Errorf("%w: %v", domain.ErrCollaboratorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.RetrievalAnswer{}, fmt.Errorf("%w: status %d", domain.ErrCollaboratorUnavailable, resp.StatusCode)
	}

	var out retrievalResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.RetrievalAnswer{}, fmt.Errorf("parse answer: %w", err)
	}

	text := out.Answer
	if strings.Contains(text, "<") {
		text = stripHTML(text)
	}
	if strings.TrimSpace(text) == "" {
		return domain.RetrievalAnswer{}, fmt.Errorf("%w: empty answer", domain.ErrCollaboratorUnavailable)
	}
	return domain.RetrievalAnswer{Text: strings.TrimSpace(text), Sources: out.Sources}, nil
}

// stripHTML flattens an HTML fragment to readable plain text, keeping
// paragraph and list breaks.
func stripHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	var b strings.Builder
	doc.Find("p, li, h1, h2, h3, h4").Each(func(_ int, sel *goquery.Selection) {
		line := strings.TrimSpace(sel.Text())
		if line == "" {
			return
		}
		if goquery.NodeName(sel) == "li" {
			b.WriteString("- ")
		}
		b.WriteString(line)
		b.WriteString("\n")
	})
	if b.Len() == 0 {
		return strings.TrimSpace(doc.Text())
	}
	return strings.TrimSpace(b.String())
}
