package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	app_errors "github.com/Dhruvipatel1708/chatbot/internal/errors"
	"github.com/Dhruvipatel1708/chatbot/internal/llm"
	mock_llm "github.com/Dhruvipatel1708/chatbot/internal/llm/mocks"
	"github.com/Dhruvipatel1708/chatbot/internal/lock"
	"github.com/Dhruvipatel1708/chatbot/internal/model"
	"github.com/Dhruvipatel1708/chatbot/internal/normalize"
	"github.com/Dhruvipatel1708/chatbot/internal/prompt"
	"github.com/Dhruvipatel1708/chatbot/internal/repository"
	mock_repo "github.com/Dhruvipatel1708/chatbot/internal/repository/mocks"
	"github.com/Dhruvipatel1708/chatbot/internal/service"
)

type Mocks struct {
	repo     repository.Repository
	llm      *mock_llm.MockLLMProvider
	sessions *service.SessionService
}

func setupChatService(t *testing.T) (*service.ChatService, Mocks) {
	t.Helper()
	mocks := Mocks{
		repo: repository.NewMemoryRepository(),
		llm:  mock_llm.NewMockLLMProvider(t),
	}
	mocks.llm.On("Name").Return("mock").Maybe()
	mocks.sessions = service.NewSessionService(mocks.repo, zap.NewNop().Sugar())

	return newChatService(t, mocks.repo, mocks.llm), mocks
}

func newChatService(t *testing.T, repo repository.Repository, provider llm.LLMProvider) *service.ChatService {
	t.Helper()
	tmpl, err := prompt.Load("")
	require.NoError(t, err)
	return service.NewChatService(
		repo,
		provider,
		lock.NewKeyedMutex(),
		prompt.NewComposer(tmpl, 0),
		service.ChatOptions{Model: "test-model", Timeout: 5 * time.Second},
		zap.NewNop().Sugar(),
	)
}

func createSession(t *testing.T, m Mocks, owner, id string) {
	t.Helper()
	_, err := m.sessions.Create(context.Background(), owner, id, "")
	require.NoError(t, err)
}

func reply(text string) *llm.GenerateResponse {
	return &llm.GenerateResponse{Model: "test-model", Response: text, Done: true}
}

// streamChunks makes a GenerateStream mock emit the given fragments and close.
func streamChunks(fragments ...string) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		ch := args.Get(2).(chan<- llm.StreamChunk)
		for _, f := range fragments {
			ch <- llm.StreamChunk{Content: f}
		}
		ch <- llm.StreamChunk{Done: true}
		close(ch)
	}
}

func drain(out <-chan model.StreamResponse) []model.StreamResponse {
	var frames []model.StreamResponse
	for f := range out {
		frames = append(frames, f)
	}
	return frames
}

func TestChatService_Chat_FirstExchange(t *testing.T) {
	ctx := context.Background()
	chatService, mocks := setupChatService(t)
	createSession(t, mocks, "u1", "s1")

	mocks.llm.On("Generate", mock.Anything, mock.MatchedBy(func(req *llm.GenerateRequest) bool {
		return req.Model == "test-model" && !req.Stream &&
			strings.HasPrefix(req.Prompt, "You are an Expert Computer Science Tutor.") &&
			strings.HasSuffix(req.Prompt, "\nUser: What is a stack?\nAssistant:")
	})).Return(reply("\r\n\nA stack is a LIFO structure.\n\n\n\nPush and pop.  \n"), nil).Once()

	result, err := chatService.Chat(ctx, "u1", "s1", "What is a stack?")
	require.NoError(t, err)
	assert.Equal(t, "A stack is a LIFO structure.\n\nPush and pop.", result.Reply)

	sess, err := mocks.sessions.History(ctx, "u1", "s1")
	require.NoError(t, err)
	require.Len(t, sess.Turns, 2)
	assert.Equal(t, model.RoleUser, sess.Turns[0].Role)
	assert.Equal(t, "What is a stack?", sess.Turns[0].Content)
	assert.Equal(t, model.RoleAssistant, sess.Turns[1].Role)
	assert.Equal(t, result.Reply, sess.Turns[1].Content)
	assert.NotEmpty(t, sess.Turns[1].Content)
	assert.False(t, sess.Turns[1].Timestamp.Before(sess.Turns[0].Timestamp))

	assert.Equal(t, "What is a stack?", sess.Title)
	assert.Equal(t, model.TitleDerived, sess.TitleState)
	assert.LessOrEqual(t, len([]rune(sess.Title)), 40)
}

func TestChatService_Chat_AutoNamingHappensOnce(t *testing.T) {
	ctx := context.Background()
	chatService, mocks := setupChatService(t)
	createSession(t, mocks, "u1", "s1")

	mocks.llm.On("Generate", mock.Anything, mock.Anything).Return(reply("ok"), nil).Times(4)

	questions := []string{
		"Explain the difference between a process and a thread in detail please",
		"What is a mutex?",
		"What is a semaphore?",
		"And a monitor?",
	}
	for _, q := range questions {
		_, err := chatService.Chat(ctx, "u1", "s1", q)
		require.NoError(t, err)
	}

	sess, err := mocks.sessions.History(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "Explain the difference between a proc...", sess.Title)
	assert.Equal(t, model.TitleDerived, sess.TitleState)
	assert.Len(t, sess.Turns, 8)

	for i := 1; i < len(sess.Turns); i++ {
		assert.False(t, sess.Turns[i].Timestamp.Before(sess.Turns[i-1].Timestamp), "turn %d goes back in time", i)
	}
}

func TestChatService_Chat_UserTitleIsNeverReplaced(t *testing.T) {
	ctx := context.Background()
	chatService, mocks := setupChatService(t)
	createSession(t, mocks, "u1", "s1")
	require.NoError(t, mocks.sessions.Rename(ctx, "u1", "s1", "My notes"))

	mocks.llm.On("Generate", mock.Anything, mock.Anything).Return(reply("ok"), nil).Twice()

	for i := 0; i < 2; i++ {
		_, err := chatService.Chat(ctx, "u1", "s1", "What is a B-tree?")
		require.NoError(t, err)
	}

	sess, err := mocks.sessions.History(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "My notes", sess.Title)
	assert.Equal(t, model.TitleUser, sess.TitleState)
}

func TestChatService_Chat_HistoryWindow(t *testing.T) {
	ctx := context.Background()
	chatService, mocks := setupChatService(t)
	createSession(t, mocks, "u1", "s1")

	var turns []model.Turn
	for i := 0; i < 20; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		turns = append(turns, model.Turn{ID: fmt.Sprint(i), Role: role, Content: fmt.Sprintf("turn-%02d", i), Timestamp: time.Now().UTC()})
	}
	require.NoError(t, mocks.repo.AppendTurns(ctx, "u1", "s1", turns, ""))

	var captured string
	mocks.llm.On("Generate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*llm.GenerateRequest).Prompt }).
		Return(reply("ok"), nil).Once()

	_, err := chatService.Chat(ctx, "u1", "s1", "next")
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		assert.NotContains(t, captured, fmt.Sprintf("turn-%02d", i))
	}
	for i := 8; i < 20; i++ {
		assert.Contains(t, captured, fmt.Sprintf("turn-%02d", i))
	}
	assert.Less(t, strings.Index(captured, "User: turn-08"), strings.Index(captured, "Assistant: turn-19"))
}

func TestChatService_Chat_Failures(t *testing.T) {
	ctx := context.Background()

	generationFailures := []struct {
		name string
		err  error
	}{
		{"Unavailable backend", fmt.Errorf("%w: connection refused", app_errors.ErrGenerationUnavailable)},
		{"Timed out backend", fmt.Errorf("%w: context deadline exceeded", app_errors.ErrGenerationTimeout)},
	}
	for _, tc := range generationFailures {
		t.Run(tc.name+" persists nothing", func(t *testing.T) {
			chatService, mocks := setupChatService(t)
			createSession(t, mocks, "u1", "s1")

			mocks.llm.On("Generate", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			_, err := chatService.Chat(ctx, "u1", "s1", "What is a stack?")
			assert.ErrorIs(t, err, tc.err)

			sess, err := mocks.sessions.History(ctx, "u1", "s1")
			require.NoError(t, err)
			assert.Empty(t, sess.Turns)
			assert.Equal(t, model.DefaultTitle, sess.Title)
		})
	}

	t.Run("Blank reply persists nothing", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		createSession(t, mocks, "u1", "s1")

		mocks.llm.On("Generate", mock.Anything, mock.Anything).Return(reply(" \r\n\n\n "), nil).Once()

		_, err := chatService.Chat(ctx, "u1", "s1", "What is a stack?")
		assert.ErrorIs(t, err, app_errors.ErrGenerationUnavailable)

		sess, err := mocks.sessions.History(ctx, "u1", "s1")
		require.NoError(t, err)
		assert.Empty(t, sess.Turns)
		assert.Equal(t, model.TitleSentinel, sess.TitleState)
	})

	t.Run("Padded session id is used as given", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		createSession(t, mocks, "u1", " s1 ")

		mocks.llm.On("Generate", mock.Anything, mock.Anything).Return(reply("ok"), nil).Once()

		result, err := chatService.Chat(ctx, "u1", " s1 ", "hi")
		require.NoError(t, err)
		assert.Equal(t, " s1 ", result.SessionID)

		sess, err := mocks.sessions.History(ctx, "u1", " s1 ")
		require.NoError(t, err)
		assert.Len(t, sess.Turns, 2)

		_, err = chatService.Chat(ctx, "u1", "s1", "hi")
		assert.ErrorIs(t, err, app_errors.ErrNotFound)
	})

	t.Run("Foreign session is not found and never generated", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		createSession(t, mocks, "u1", "s1")

		_, err := chatService.Chat(ctx, "u2", "s1", "hi")
		assert.ErrorIs(t, err, app_errors.ErrNotFound)
		mocks.llm.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	})

	t.Run("Unknown session is not found", func(t *testing.T) {
		chatService, _ := setupChatService(t)
		_, err := chatService.Chat(ctx, "u1", "nope", "hi")
		assert.ErrorIs(t, err, app_errors.ErrNotFound)
	})

	t.Run("Empty text is a validation error", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		createSession(t, mocks, "u1", "s1")

		_, err := chatService.Chat(ctx, "u1", "s1", "  \n ")
		assert.ErrorIs(t, err, app_errors.ErrValidation)
	})

	t.Run("Store failure on append is internal", func(t *testing.T) {
		repo := mock_repo.NewMockRepository(t)
		provider := mock_llm.NewMockLLMProvider(t)
		provider.On("Name").Return("mock").Maybe()
		chatService := newChatService(t, repo, provider)

		repo.On("GetSession", mock.Anything, "u1", "s1").Return(&model.Session{ID: "s1", OwnerID: "u1", Title: model.DefaultTitle, TitleState: model.TitleSentinel}, nil).Once()
		provider.On("Generate", mock.Anything, mock.Anything).Return(reply("ok"), nil).Once()
		repo.On("AppendTurns", mock.Anything, "u1", "s1", mock.AnythingOfType("[]model.Turn"), "hi").Return(errors.New("database is locked")).Once()

		_, err := chatService.Chat(ctx, "u1", "s1", "hi")
		assert.ErrorIs(t, err, app_errors.ErrInternal)
	})

	t.Run("Session deleted during generation is not found", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		createSession(t, mocks, "u1", "s1")

		mocks.llm.On("Generate", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				require.NoError(t, mocks.sessions.Delete(ctx, "u1", "s1"))
			}).
			Return(reply("ok"), nil).Once()

		_, err := chatService.Chat(ctx, "u1", "s1", "hi")
		assert.ErrorIs(t, err, app_errors.ErrNotFound)
	})
}

func TestChatService_Chat_OneExchangeInFlightPerSession(t *testing.T) {
	ctx := context.Background()
	chatService, mocks := setupChatService(t)
	createSession(t, mocks, "u1", "s1")
	createSession(t, mocks, "u1", "s2")

	started := make(chan struct{})
	release := make(chan struct{})
	mocks.llm.On("Generate", mock.Anything, mock.MatchedBy(func(req *llm.GenerateRequest) bool {
		return strings.HasSuffix(req.Prompt, "User: slow\nAssistant:")
	})).Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(reply("slow answer"), nil).Once()
	mocks.llm.On("Generate", mock.Anything, mock.Anything).Return(reply("fast answer"), nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := chatService.Chat(ctx, "u1", "s1", "slow")
		assert.NoError(t, err)
	}()
	<-started

	busyCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err := chatService.Chat(busyCtx, "u1", "s1", "second")
	assert.ErrorIs(t, err, app_errors.ErrConflict)

	// Other sessions are not blocked.
	_, err = chatService.Chat(ctx, "u1", "s2", "independent")
	assert.NoError(t, err)

	close(release)
	wg.Wait()

	sess, err := mocks.sessions.History(ctx, "u1", "s1")
	require.NoError(t, err)
	require.Len(t, sess.Turns, 2)
	assert.Equal(t, "slow", sess.Turns[0].Content)

	_, err = chatService.Chat(ctx, "u1", "s1", "third")
	require.NoError(t, err)
	sess, err = mocks.sessions.History(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Len(t, sess.Turns, 4)
}

func TestChatService_ChatStream(t *testing.T) {
	ctx := context.Background()

	t.Run("Fragments are relayed and the cleaned reply is persisted", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		createSession(t, mocks, "u1", "s1")

		fragments := []string{"A stack ", "is LIFO.", "\n\n\n\nPush ", "", "and pop.\n"}
		mocks.llm.On("GenerateStream", mock.Anything, mock.MatchedBy(func(req *llm.GenerateRequest) bool {
			return req.Stream
		}), mock.Anything).Run(streamChunks(fragments...)).Return(nil).Once()

		out := make(chan model.StreamResponse)
		go chatService.ChatStream(ctx, "u1", "s1", "What is a stack?", out)
		frames := drain(out)

		require.NotEmpty(t, frames)
		final := frames[len(frames)-1]
		assert.True(t, final.Done)
		assert.Empty(t, final.Error)

		var relayed strings.Builder
		for _, f := range frames[:len(frames)-1] {
			assert.False(t, f.Done)
			relayed.WriteString(f.Content)
		}
		assert.Equal(t, strings.Join(fragments, ""), relayed.String())
		assert.Equal(t, normalize.Clean(relayed.String()), final.Content)

		sess, err := mocks.sessions.History(ctx, "u1", "s1")
		require.NoError(t, err)
		require.Len(t, sess.Turns, 2)
		assert.Equal(t, final.Content, sess.Turns[1].Content)
		assert.Equal(t, "What is a stack?", sess.Title)
	})

	t.Run("Generation failure ends with an error frame and persists nothing", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		createSession(t, mocks, "u1", "s1")

		mocks.llm.On("GenerateStream", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				ch := args.Get(2).(chan<- llm.StreamChunk)
				ch <- llm.StreamChunk{Content: "partial"}
				close(ch)
			}).
			Return(fmt.Errorf("%w: stream broke", app_errors.ErrGenerationUnavailable)).Once()

		out := make(chan model.StreamResponse)
		go chatService.ChatStream(ctx, "u1", "s1", "What is a stack?", out)
		frames := drain(out)

		require.Len(t, frames, 2)
		assert.Equal(t, "partial", frames[0].Content)
		assert.True(t, frames[1].Done)
		assert.NotEmpty(t, frames[1].Error)
		assert.ErrorIs(t, frames[1].Err, app_errors.ErrGenerationUnavailable)

		sess, err := mocks.sessions.History(ctx, "u1", "s1")
		require.NoError(t, err)
		assert.Empty(t, sess.Turns)
	})

	t.Run("Unknown session yields a single not found frame", func(t *testing.T) {
		chatService, _ := setupChatService(t)

		out := make(chan model.StreamResponse)
		go chatService.ChatStream(ctx, "u1", "missing", "hi", out)
		frames := drain(out)

		require.Len(t, frames, 1)
		assert.ErrorIs(t, frames[0].Err, app_errors.ErrNotFound)
	})

	t.Run("Disconnected caller does not stop persistence", func(t *testing.T) {
		chatService, mocks := setupChatService(t)
		createSession(t, mocks, "u1", "s1")

		callerCtx, hangUp := context.WithCancel(ctx)
		mocks.llm.On("GenerateStream", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				ch := args.Get(2).(chan<- llm.StreamChunk)
				ch <- llm.StreamChunk{Content: "first "}
				hangUp()
				ch <- llm.StreamChunk{Content: "second"}
				ch <- llm.StreamChunk{Done: true}
				close(ch)
			}).
			Return(nil).Once()

		// Nobody reads out: the relay must not block the exchange.
		out := make(chan model.StreamResponse)
		chatService.ChatStream(callerCtx, "u1", "s1", "hello", out)

		sess, err := mocks.sessions.History(ctx, "u1", "s1")
		require.NoError(t, err)
		require.Len(t, sess.Turns, 2)
		assert.Equal(t, "first second", sess.Turns[1].Content)

		_, open := <-out
		assert.False(t, open)
	})
}
