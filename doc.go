/*
Package debrief is a scripted reflection coach for conversational interfaces.

It walks a user through a fixed sequence of end-of-day reflection questions. After every
reply a language model decides whether the current topic has been explored enough; if so
the user is offered to move on, otherwise the model asks a follow-up question. Once the
closing question is declined the session ends and a structured summary (goals and
follow-up opportunities) is persisted.

# Architecture

The conversation state machine (internal/runtime) is pure: each operation takes a session
state and returns a new one. Everything else sits behind ports:

  - ports.ModelGateway: the language model (langchaingo adapter, or the offline scripted gateway).
  - ports.StateStore: where sessions live (memory, file, redis, sqlite).
  - ports.SummarySink: where summaries are persisted.

The Coach type binds them together behind a session-ID based API consumed by the
terminal runner, the HTTP and MCP servers and the Telegram bot.

# Usage

	gw := scripted.New()
	coach, err := debrief.New(gw)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	view, _ := coach.Open(ctx, "evening")
	fmt.Println(view.Transcript[0].Content) // What is one success you had today?

	view, err = coach.Send(ctx, "evening", "I finished the quarterly report.")
	if errors.Is(err, domain.ErrModelUnavailable) {
		view, err = coach.Retry(ctx, "evening")
	}

Yes/no questions are flagged on the view (ShowYesNo) and can be answered with Answer.
*/
package debrief
