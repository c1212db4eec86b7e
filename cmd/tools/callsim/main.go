package main

import (
	"bufio"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// callsim drives a scripted caller against a running backend, one websocket
// turn at a time, and prints the replies. Useful for exercising the booking
// flow without a browser client.

var defaultScript = []string{
	"Hello?",
	"I'd like to book an appointment",
	"Jane Doe",
	"555-0142",
	"I need a general checkup",
	"March 5th at 2:30 PM",
	"Thank you, goodbye",
}

type outbound struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type inbound struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Audio   string `json:"audio"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	url := flag.String("url", "ws://localhost:8000/ws", "websocket endpoint of the backend")
	scriptPath := flag.String("script", "", "file with one caller utterance per line (default: built-in booking script)")
	pause := flag.Duration("pause", 300*time.Millisecond, "pause between turns")
	timeout := flag.Duration("timeout", 30*time.Second, "per-turn read timeout")

	flag.Parse()

	script := defaultScript
	if *scriptPath != "" {
		lines, err := loadScript(*scriptPath)
		if err != nil {
			log.Fatalf("failed to load script: %v", err)
		}
		script = lines
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		log.Fatalf("dial %s failed: %v", *url, err)
	}
	defer conn.Close()

	log.Printf("connected to %s, playing %d turns", *url, len(script))

	for i, line := range script {
		if err := conn.WriteJSON(outbound{Type: "transcription", Text: line}); err != nil {
			log.Fatalf("turn %d: write failed: %v", i+1, err)
		}
		fmt.Printf("caller> %s\n", line)

		conn.SetReadDeadline(time.Now().Add(*timeout))
		var reply inbound
		if err := conn.ReadJSON(&reply); err != nil {
			log.Fatalf("turn %d: read failed: %v", i+1, err)
		}

		switch reply.Type {
		case "response":
			fmt.Printf("desk>   %s\n", reply.Text)
			if reply.Audio != "" {
				audio, err := base64.StdEncoding.DecodeString(reply.Audio)
				if err != nil {
					log.Printf("turn %d: invalid audio payload: %v", i+1, err)
				} else {
					fmt.Printf("        [audio: %d bytes]\n", len(audio))
				}
			}
			if reply.Error != "" {
				fmt.Printf("        [%s]\n", reply.Error)
			}
		case "error":
			fmt.Printf("desk!   %s\n", reply.Message)
		default:
			log.Printf("turn %d: unexpected message type %q", i+1, reply.Type)
		}

		time.Sleep(*pause)
	}

	log.Println("script finished")
}

func loadScript(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("script %s has no utterances", path)
	}
	return lines, nil
}
