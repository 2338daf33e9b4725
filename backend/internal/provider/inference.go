package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"wikigraph/backend/internal/constants"
	"wikigraph/backend/internal/view"
	"wikigraph/backend/pkg/logger"
)

// Inference handles all AI calls through an OpenAI-compatible gateway:
// topic extraction, embeddings, relation scoring and narration synthesis
type Inference struct {
	client      *openai.Client
	chatModel   string
	embedModel  string
	speechModel string
	logger      *zap.Logger
}

// NewInference creates a new inference client
func NewInference(baseURL, apiKey, chatModel, embedModel, speechModel string) *Inference {
	// The gateway accepts any key when auth is disabled locally
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL + "/v1"

	return &Inference{
		client:      openai.NewClientWithConfig(config),
		chatModel:   chatModel,
		embedModel:  embedModel,
		speechModel: speechModel,
		logger:      logger.Get(),
	}
}

// Embed returns one embedding per input text, order-preserving, all with the
// fixed dimensionality the store expects. Callers keep batches within
// constants.EmbeddingBatchLimit.
func (p *Inference) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts to embed")
	}
	if len(texts) > constants.EmbeddingBatchLimit {
		return nil, fmt.Errorf("batch of %d exceeds embedding limit %d", len(texts), constants.EmbeddingBatchLimit)
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(p.embedModel),
		Dimensions: constants.EmbeddingDimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	vects := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vects) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		if len(d.Embedding) != constants.EmbeddingDimensions {
			return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(d.Embedding), constants.EmbeddingDimensions)
		}
		vects[d.Index] = d.Embedding
	}
	return vects, nil
}

const topicsPrompt = `Analyze the following encyclopedia article text. Your task is to identify the most important topics and key information.
You must always refer to events, known figures and cultural works by their full names.
Pronouns are too vague, lead to confusion and are therefore forbidden.

For each topic you identify, provide:
1. 'sentence': A very succinct, single sentence summary. Every single word must be useful; remove all fluff.

Format your entire response as a single valid JSON array of objects. Do not include any text or formatting outside of this JSON array.

Example format:
[
  {"sentence": "The subject was born in a specific, noteworthy location."},
  {"sentence": "A major discovery or achievement is attributed to the subject."}
]

Here is the text to analyze:
---
%s`

// ExtractTopics distills breakdown sentences from full article text. An
// empty result is returned as an empty slice, not an error; the caller
// decides whether that aborts synthesis.
func (p *Inference) ExtractTopics(ctx context.Context, fullText string) ([]view.Topic, error) {
	fullText = strings.TrimSpace(fullText)
	if fullText == "" {
		return nil, fmt.Errorf("text content is empty")
	}

	content, err := p.complete(ctx, fmt.Sprintf(topicsPrompt, fullText))
	if err != nil {
		return nil, err
	}

	var topics []view.Topic
	if err := json.Unmarshal([]byte(stripJSONFence(content)), &topics); err != nil {
		return nil, fmt.Errorf("topic response is not a valid JSON array: %w", err)
	}

	usable := topics[:0]
	for _, t := range topics {
		if strings.TrimSpace(t.Sentence) != "" {
			usable = append(usable, t)
		}
	}
	return usable, nil
}

const relationsPrompt = `<goal>
Build a helpful encyclopedia companion by rating a list of connected articles for a given page and prioritizing their usefulness.
</goal>

<instructions>
Analyze the input article text and the list of linked page titles.
Your task is to provide a relevance score and a list of tags for each linked page.
Tags must carry semantic meaning grounded in the analyzed article; multiple linked pages should share common tags. Tags will be used to group and filter the linked pages.

For each linked page, provide:
1. 'destPageName': The page name you are rating.
2. 'relevance': An integer indicating how important destPageName is relative to the article, from 0 (most dispensable) to 100 (most crucial).
3. 'tags': The list of tags attributable to destPageName.
</instructions>

<outputFormat>
Format your entire response as a single valid JSON array of objects. Do not include any text or formatting outside of this JSON array. Provide only the data for the most relevant pages, up to %d pages.

Example format:
[
  {"destPageName": "climate_change", "relevance": 72, "tags": ["human-origin", "urgent", "global"]},
  {"destPageName": "albedo", "relevance": 8, "tags": ["physical-phenomenon", "global"]}
]
</outputFormat>

<input>
  <article>
  %s
  </article>

  <listOfDestPageNames>
  %s
  </listOfDestPageNames>
</input>`

// ScoreRelations rates candidate destination names against the article text.
// Candidates are deduplicated before the call; structurally invalid output
// is an error, never passed through.
func (p *Inference) ScoreRelations(ctx context.Context, candidateNames []string, contextText string) ([]view.ScoredRelation, error) {
	unique := dedupe(candidateNames)
	if len(unique) == 0 {
		return []view.ScoredRelation{}, nil
	}

	prompt := fmt.Sprintf(relationsPrompt, constants.RelationScoringCap, contextText, strings.Join(unique, ", "))
	content, err := p.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var scored []view.ScoredRelation
	if err := json.Unmarshal([]byte(stripJSONFence(content)), &scored); err != nil {
		return nil, fmt.Errorf("relation response is not a valid JSON array: %w", err)
	}

	valid := scored[:0]
	for _, s := range scored {
		if strings.TrimSpace(s.DestPageName) == "" {
			continue
		}
		if s.Relevance < 0 {
			s.Relevance = 0
		}
		if s.Relevance > 100 {
			s.Relevance = 100
		}
		valid = append(valid, s)
	}
	if len(valid) > constants.RelationScoringCap {
		valid = valid[:constants.RelationScoringCap]
	}
	return valid, nil
}

// SynthesizeAudio renders narration for the given text as raw PCM bytes
// (24kHz, mono, 16-bit)
func (p *Inference) SynthesizeAudio(ctx context.Context, text string) ([]byte, error) {
	resp, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.speechModel),
		Input:          text,
		Voice:          openai.VoiceNova,
		ResponseFormat: openai.SpeechResponseFormatPcm,
	})
	if err != nil {
		return nil, fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech response: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("speech response is empty")
	}
	return data, nil
}

// complete issues a chat completion with retry and returns the raw content
func (p *Inference) complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.2,
	}

	var resp openai.ChatCompletionResponse
	var err error
	maxRetries := 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			p.logger.Warn("Retrying inference request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err = p.client.CreateChatCompletion(ctx, req)
		if err == nil {
			break
		}
		p.logger.Error("Inference request failed",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.String("model", p.chatModel),
		)
	}
	if err != nil {
		return "", fmt.Errorf("inference failed after %d attempts: %w", maxRetries, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty inference response")
	}
	return resp.Choices[0].Message.Content, nil
}

// stripJSONFence removes a markdown code fence around a JSON payload
func stripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
