package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/askuser/askuser/internal/registry"
)

// Wizard provides an interactive configuration wizard
type Wizard struct {
	reader *bufio.Reader
}

// NewWizard creates a new configuration wizard
func NewWizard() *Wizard {
	return &Wizard{
		reader: bufio.NewReader(os.Stdin),
	}
}

// Run runs the interactive configuration wizard. It sets up the first
// channel endpoint, which becomes the default.
func (w *Wizard) Run() (*Config, error) {
	fmt.Println("=== askuser Configuration Wizard ===")
	fmt.Println()

	cfg := DefaultConfig()
	validator := NewValidator()

	fmt.Println("First channel endpoint:")
	fmt.Println()

	// Channel name
	var name string
	for {
		fmt.Print("Channel name [default]: ")
		line, err := w.readLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			line = "default"
		}
		if err := validator.ValidateChannelName(line); err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		name = line
		break
	}

	// Bot token
	var token string
	for {
		fmt.Print("Telegram Bot Token: ")
		line, err := w.readLine()
		if err != nil {
			return nil, err
		}
		if err := validator.ValidateTelegramToken(line); err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		token = line
		break
	}

	// Chat id
	var chatID int64
	for {
		fmt.Print("Chat ID: ")
		line, err := w.readLine()
		if err != nil {
			return nil, err
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil || id == 0 {
			fmt.Println("Error: chat id must be a non-zero integer")
			continue
		}
		chatID = id
		break
	}

	cfg.Channels.Endpoints = []registry.Endpoint{
		{Name: name, Token: token, ChatID: chatID},
	}
	cfg.Channels.Default = name

	fmt.Println()

	// Continue shortcut
	fmt.Print("Enable the continue-without-input button? (y/n) [y]: ")
	enable, err := w.readLine()
	if err != nil {
		return nil, err
	}
	cfg.Reply.EnableContinue = enable == "" || strings.ToLower(enable) == "y"

	fmt.Println()

	// Log Level
	fmt.Println("Logging:")
	fmt.Print("Log level (debug/info/warn/error) [info]: ")
	level, err := w.readLine()
	if err != nil {
		return nil, err
	}

	if level != "" {
		if err := validator.ValidateLogLevel(level); err != nil {
			fmt.Printf("Warning: %v, using default (info)\n", err)
		} else {
			cfg.Logging.Level = level
		}
	}

	fmt.Println()
	fmt.Println("Configuration complete!")

	return cfg, nil
}

func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
