package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mitra-ai/docchat/internal/ai"
	"github.com/mitra-ai/docchat/internal/model"
	appErr "github.com/mitra-ai/docchat/internal/pkg/errors"
	"github.com/mitra-ai/docchat/internal/session"
	"github.com/mitra-ai/docchat/internal/vectorindex"
)

// UnknownAnswer is returned whenever the document cannot answer the question
// or the answer pipeline degrades.
const UnknownAnswer = "I don't know"

const promptTemplate = `Use the following pieces of context to answer the question. If you cannot find the answer in the context, just say "I don't know". Do not make up an answer.

Context: %s

Question: %s

Answer:`

// AnswerResult is one answered query with its supporting chunks. Timestamp
// comes from the service clock, cache hits included.
type AnswerResult struct {
	Answer    string
	Sources   []model.SourceReference
	IsUnknown bool
	Timestamp time.Time
}

// SendResult is an answered query recorded into a chat session.
type SendResult struct {
	AnswerResult
	BotMessage model.Message
}

// ChatService answers questions against the active document index. Provider
// or index failures never surface as request errors; the caller gets the
// unknown answer and the failure goes to the log.
type ChatService struct {
	embedder  ai.IEmbedder
	generator ai.IGenerator
	ref       *IndexRef
	sessions  *session.Store
	topK      int
	timeout   time.Duration
	cache     *expirable.LRU[string, AnswerResult]
	now       func() time.Time
}

func NewChatService(embedder ai.IEmbedder, generator ai.IGenerator, ref *IndexRef,
	sessions *session.Store, topK int, timeout time.Duration, cacheSize int, cacheTTL time.Duration) *ChatService {
	if topK <= 0 {
		topK = 3
	}
	var cache *expirable.LRU[string, AnswerResult]
	if cacheSize > 0 {
		cache = expirable.NewLRU[string, AnswerResult](cacheSize, nil, cacheTTL)
	}
	return &ChatService{
		embedder:  embedder,
		generator: generator,
		ref:       ref,
		sessions:  sessions,
		topK:      topK,
		timeout:   timeout,
		cache:     cache,
		now:       time.Now,
	}
}

// Answer runs the retrieval pipeline for one query.
func (s *ChatService) Answer(ctx context.Context, query string) (AnswerResult, error) {
	result, err := s.answer(ctx, query)
	if err != nil {
		return AnswerResult{}, err
	}
	result.Timestamp = s.now().UTC()
	return result, nil
}

func (s *ChatService) answer(ctx context.Context, query string) (AnswerResult, error) {
	if strings.TrimSpace(query) == "" {
		return AnswerResult{}, appErr.ErrEmptyQuery
	}
	idx, indexName, gen, ok := s.ref.Current()
	if !ok || idx.Len() == 0 {
		return AnswerResult{Answer: UnknownAnswer, IsUnknown: true}, nil
	}

	key := cacheKey(indexName, gen, query)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
	}

	logger := logutil.GetLogger(ctx).With(zap.String("index", indexName))

	queryVec, err := s.embedQuery(ctx, query)
	if err != nil {
		logger.Error("embed query failed", zap.Error(err))
		return AnswerResult{Answer: UnknownAnswer, IsUnknown: true}, nil
	}
	results, err := idx.Search(ctx, queryVec, s.topK)
	if err != nil {
		logger.Error("index search failed", zap.Error(err))
		return AnswerResult{Answer: UnknownAnswer, IsUnknown: true}, nil
	}
	if len(results) == 0 {
		return AnswerResult{Answer: UnknownAnswer, IsUnknown: true}, nil
	}

	answer, err := s.generate(ctx, query, results)
	if err != nil {
		logger.Error("generate answer failed", zap.Error(err))
		return AnswerResult{Answer: UnknownAnswer, IsUnknown: true}, nil
	}

	result := AnswerResult{
		Answer:  answer,
		Sources: buildSources(results),
	}
	if answer == "" || declinesToAnswer(answer) {
		result.Answer = UnknownAnswer
		result.IsUnknown = true
	}
	if s.cache != nil {
		s.cache.Add(key, result)
	}
	return result, nil
}

// Send answers the query and appends the exchange to the chat session.
func (s *ChatService) Send(ctx context.Context, chatID string, message string) (SendResult, error) {
	result, err := s.Answer(ctx, message)
	if err != nil {
		return SendResult{}, err
	}
	now := result.Timestamp
	userMsg := model.Message{
		ID:        uuid.NewString(),
		Text:      message,
		Sender:    model.SenderUser,
		Timestamp: now,
	}
	botMsg := model.Message{
		ID:        uuid.NewString(),
		Text:      result.Answer,
		Sender:    model.SenderBot,
		Timestamp: now,
	}
	s.sessions.Append(chatID, userMsg, botMsg)
	return SendResult{AnswerResult: result, BotMessage: botMsg}, nil
}

func (s *ChatService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.embedder.Embed(ctx, query, ai.TaskRetrievalQuery)
}

func (s *ChatService) generate(ctx context.Context, query string, results []vectorindex.SearchResult) (string, error) {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Chunk.Content)
	}
	prompt := fmt.Sprintf(promptTemplate, strings.Join(parts, "\n\n"), query)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func buildSources(results []vectorindex.SearchResult) []model.SourceReference {
	sources := make([]model.SourceReference, 0, len(results))
	for _, r := range results {
		sources = append(sources, model.SourceReference{
			Content:  preview(r.Chunk.Content, 200),
			Metadata: r.Chunk.Metadata,
		})
	}
	return sources
}

func preview(content string, limit int) string {
	runes := []rune(content)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes) + "..."
}

// declinesToAnswer reports whether the model refused the question. Models
// echo the prompt's sentinel with varying case, punctuation or surrounding
// prose; any such reply is normalized to the exact UnknownAnswer text.
func declinesToAnswer(answer string) bool {
	return strings.Contains(strings.ToLower(answer), strings.ToLower(UnknownAnswer))
}

func cacheKey(indexName string, gen uint64, query string) string {
	sum := sha256.Sum256([]byte(indexName + "|" + strconv.FormatUint(gen, 10) + "|" + query))
	return hex.EncodeToString(sum[:])
}
