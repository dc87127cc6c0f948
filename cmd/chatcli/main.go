// Command chatcli is an interactive terminal client for the chat API,
// built on the same store the UI layers use. It streams replies to
// stdout and persists the session list across runs.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/studybuddy-ai/chat-core/chatservice"
	"github.com/studybuddy-ai/chat-core/chatstore"
	"github.com/studybuddy-ai/chat-core/config"
	"github.com/studybuddy-ai/chat-core/model"
)

func main() {
	if err := config.LoadENV(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	getEnv, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if getEnv.CHAT_TOKEN == "" {
		log.Fatal("CHAT_TOKEN is not set. Log in via the API and export the access token.")
	}

	auth := &chatstore.JWTAuth{
		AccessToken: getEnv.CHAT_TOKEN,
		OnLogout: func() {
			fmt.Println("Session expired. Export a fresh CHAT_TOKEN and restart.")
		},
	}

	client := chatservice.NewClient(chatservice.Config{
		BaseURL: getEnv.CHAT_API_URL,
		Tokens:  auth,
	})

	cfg := chatstore.Config{
		Service: client,
		Auth:    auth,
	}
	if getEnv.SNAPSHOT_PATH != "" {
		cfg.Snapshots = &chatstore.FileSnapshots{Path: getEnv.SNAPSHOT_PATH}
	}
	store := chatstore.New(cfg)

	ctx := context.Background()
	if err := store.LoadSessions(ctx, true, ""); err != nil {
		log.Printf("Warning: could not load sessions: %v", err)
	}

	fmt.Println("chatcli - type a message to chat, /help for commands")
	printSessions(store.Snapshot())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runCommand(ctx, store, client, line); quit {
				return
			}
			continue
		}

		send(ctx, store, line)
	}
}

func runCommand(ctx context.Context, store *chatstore.Store, client *chatservice.Client, line string) (quit bool) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		fmt.Println(`Commands:
  /sessions          list sessions
  /more              load the next page of sessions
  /open <n>          open session by list number
  /new [title]       create a new session
  /star <n>          star session by list number
  /search <query>    search sessions
  /export [format]   export the open conversation (json, markdown, txt)
  /quit              exit`)

	case "/quit":
		return true

	case "/sessions":
		printSessions(store.Snapshot())

	case "/more":
		if err := store.LoadSessions(ctx, false, ""); err == nil {
			printSessions(store.Snapshot())
		}

	case "/open":
		session, ok := sessionByNumber(store, args)
		if !ok {
			return false
		}
		if err := store.LoadSession(ctx, session.ID); err != nil {
			return false
		}
		state := store.Snapshot()
		fmt.Printf("-- %s --\n", state.CurrentSession.Title)
		for _, m := range state.CurrentMessages {
			fmt.Printf("[%s] %s\n", m.Role, m.Content)
		}

	case "/new":
		title := strings.Join(args, " ")
		if _, err := store.CreateSession(ctx, chatstore.CreateSessionInput{Title: title}); err == nil {
			fmt.Println("Created session. Type a message to start chatting.")
		}

	case "/star":
		session, ok := sessionByNumber(store, args)
		if !ok {
			return false
		}
		store.StarSession(ctx, session.ID)

	case "/export":
		state := store.Snapshot()
		if state.CurrentSession == nil {
			fmt.Println("Open a session first with /open")
			return false
		}
		format := "txt"
		if len(args) > 0 {
			format = args[0]
		}
		export, err := client.ExportConversation(ctx, state.CurrentSession.ID, format)
		if err != nil {
			fmt.Println("Export failed:", err)
			return false
		}
		if export.Content != "" {
			fmt.Println(export.Content)
		} else {
			fmt.Printf("Exported %d messages as %s\n", len(export.Messages), export.Format)
		}

	case "/search":
		if len(args) == 0 {
			fmt.Println("Usage: /search <query>")
			return false
		}
		if err := store.SearchSessions(ctx, strings.Join(args, " ")); err == nil {
			printSessions(store.Snapshot())
		}

	default:
		fmt.Println("Unknown command, try /help")
	}
	return false
}

func send(ctx context.Context, store *chatstore.Store, content string) {
	input := chatstore.SendMessageInput{Content: content}
	onToken := func(token string) { fmt.Print(token) }

	state := store.Snapshot()
	if state.CurrentSession == nil {
		// First message of a fresh conversation: the session is created
		// immediately, the reply streams in the background.
		if _, err := store.CreateSessionAndSend(ctx, input); err == nil {
			fmt.Println("Started a new conversation.")
		}
		return
	}

	if _, err := store.SendMessage(ctx, input, onToken); err != nil {
		return
	}
	fmt.Println()
}

func sessionByNumber(store *chatstore.Store, args []string) (model.ChatSession, bool) {
	state := store.Snapshot()
	if len(args) == 0 {
		fmt.Println("Give a session number from /sessions")
		return model.ChatSession{}, false
	}

	var n int
	if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil || n < 1 || n > len(state.Sessions) {
		fmt.Println("No such session number")
		return model.ChatSession{}, false
	}
	return state.Sessions[n-1], true
}

func printSessions(state chatstore.State) {
	if len(state.Sessions) == 0 {
		fmt.Println("No sessions yet. Type a message to start one.")
		return
	}
	for i, session := range state.Sessions {
		star := " "
		if session.IsStarred {
			star = "*"
		}
		fmt.Printf("%2d %s %-40s %s\n", i+1, star, session.Title, session.LastMessage)
	}
	if state.HasMoreSessions {
		fmt.Println("   (/more for older sessions)")
	}
}
