// Package agribot answers farming questions through the Gemini API.
package agribot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ReyCannavaro/urbangrow/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultModel is used when Options.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// Replies shown instead of an answer.
const (
	NoAnswerReply    = "Maaf, AgriBot tidak dapat menghasilkan balasan yang relevan."
	UnreachableReply = "AgriBot saat ini tidak dapat terhubung. Silakan periksa koneksi internet Anda."
)

const systemPrompt = "Anda adalah AgriBot, asisten ahli Aquaponik, Hidroponik dan Urban Farming. " +
	"Peran Anda HANYA TERBATAS pada menjawab pertanyaan seputar: **Aquaponik**, **Hidroponik**, " +
	"**Urban Farming**, **Pertanian Perkotaan**, **Kualitas Air**, **Nutrisi Tanaman/Ikan**, dan " +
	"**Pemeliharaan Sistem Pertanian**. Selalu balas dalam Bahasa Indonesia. Jika pertanyaan tidak " +
	"relevan dengan topik-topik tersebut (contoh: politik, olahraga, hiburan), Anda HARUS menolak " +
	"dengan sopan dan mengingatkan pengguna bahwa Anda hanya dapat membantu dalam konteks pertanian. " +
	"Jawaban harus informatif, ringkas, dan relevan. Pastikan setiap poin penting atau judul " +
	"sub-bagian menggunakan format **bold** agar mudah dibaca. Untuk daftar, gunakan format * atau - " +
	"di awal baris."

// ErrEmptyQuestion is returned by Ask for blank input.
var ErrEmptyQuestion = errors.New("agribot: empty question")

// UpstreamError means every attempt to reach the model failed.
type UpstreamError struct {
	Attempts int
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("agribot: generate content failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Generator is the text-generation call. *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures a Bot. Zero values select the defaults.
type Options struct {
	Model  string
	Retry  utils.RetryPolicy
	Logger *zap.Logger
}

// Bot is a single-turn assistant. It is safe for concurrent use.
type Bot struct {
	gen    Generator
	model  string
	retry  utils.RetryPolicy
	config *genai.GenerateContentConfig
	logger *zap.Logger
}

// New wraps gen.
func New(gen Generator, opts Options) *Bot {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = utils.DefaultRetryPolicy
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Bot{
		gen:   gen,
		model: opts.Model,
		retry: opts.Retry,
		config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		},
		logger: opts.Logger.Named("agribot"),
	}
}

// NewFromAPIKey builds a Bot backed by the Gemini Developer API.
func NewFromAPIKey(ctx context.Context, apiKey string, opts Options) (*Bot, error) {
	if apiKey == "" {
		return nil, errors.New("agribot: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return New(client.Models, opts), nil
}

// Ask sends question and returns the first text part of the first
// candidate, or NoAnswerReply when the model returned none. Failed calls
// are retried per the bot's policy; when they all fail the error is an
// *UpstreamError.
func (b *Bot) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	contents := []*genai.Content{genai.NewContentFromText(question, genai.RoleUser)}

	var (
		resp     *genai.GenerateContentResponse
		attempts int
	)
	err := utils.Retry(ctx, b.retry, func(ctx context.Context, attempt int) error {
		attempts = attempt
		var err error
		resp, err = b.gen.GenerateContent(ctx, b.model, contents, b.config)
		if err != nil {
			b.logger.Warn("generate content failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return "", &UpstreamError{Attempts: attempts, Err: err}
	}

	if text := firstText(resp); text != "" {
		return text, nil
	}
	return NoAnswerReply, nil
}

// Reply is Ask for display: failures become UnreachableReply.
func (b *Bot) Reply(ctx context.Context, question string) string {
	answer, err := b.Ask(ctx, question)
	if err != nil {
		if !errors.Is(err, ErrEmptyQuestion) {
			b.logger.Error("agribot unavailable", zap.Error(err))
		}
		return UnreachableReply
	}
	return answer
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil || len(c.Content.Parts) == 0 || c.Content.Parts[0] == nil {
		return ""
	}
	return c.Content.Parts[0].Text
}
