/*
Package runner implements the terminal loop for a debrief conversation.

It acts as the bridge between a ports.Conversation and a line-oriented user.
Each input line becomes one conversation operation and every message appended
to the transcript is forwarded to a pluggable handler.

# Key Components

  - Runner: Opens (or resumes) a session and loops until it ends.
  - IOHandler: Decouples how lines are read and messages are shown.
  - TextHandler: Interactive CLI usage with a [y/n] hint on yes/no questions.
  - JSONHandler: NDJSON events out, strings or commands in, for scripting.

# Input vocabulary

  - quit / exit: end the session and print its summary.
  - empty line: retry the pending turn after a model failure.
  - anything else: sent as the user's message.

# Usage

	r := runner.NewRunner(
		runner.WithConversation(coach),
		runner.WithSessionID("user-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
