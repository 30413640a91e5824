package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sonitus/sonitus/internal/sessionlog"
)

// showHistory prints recent session events, newest first.
func showHistory(args []string) {
	limit := 50
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			fmt.Fprintf(os.Stderr, "Error: history count must be a non-negative number\n")
			os.Exit(1)
		}
		limit = n
	}

	store, err := sessionlog.NewSQLiteStore(sessionlog.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	entries, err := store.Entries(limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println("no session events logged")
		return
	}

	for _, e := range entries {
		elapsed := time.Duration(e.ElapsedMs) * time.Millisecond
		fmt.Printf("%s  %-8s  %-8s  %7.1fs  stimuli=%d\n",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.Kind, e.Technique, elapsed.Seconds(), e.Stimuli)
	}
}

// clearHistory deletes all logged session events.
func clearHistory() {
	store, err := sessionlog.NewSQLiteStore(sessionlog.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Clear(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("session log cleared (%s)\n", store.Path())
}
