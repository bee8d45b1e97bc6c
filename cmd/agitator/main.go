// Package main - agitator
// Load generator for the ColdFront server: many concurrent UIs spamming
// WebSocket actions and timing the round trip to each ACTION_RESULT.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MRamiBalles/ColdFront/server/internal/domain/family"
	"github.com/MRamiBalles/ColdFront/server/internal/domain/supply"
	"github.com/MRamiBalles/ColdFront/server/internal/network"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/logger"
	"github.com/gorilla/websocket"
)

// Config for the agitator
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	Disruptive     bool // also send SLEEP and mode changes
	Output         string
}

// Stats tracks performance metrics
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	Results          int64
	Rejected         int64
	Errors           int64
	Latencies        []time.Duration
	mu               sync.Mutex
}

func (s *Stats) observe(latency time.Duration) {
	s.mu.Lock()
	s.Latencies = append(s.Latencies, latency)
	s.mu.Unlock()
}

// Actions that change the mode or skip time for everyone.
var disruptive = map[string]bool{
	network.ActionSleep:           true,
	network.ActionSetMode:         true,
	network.ActionBack:            true,
	network.ActionTogglePhone:     true,
	network.ActionStartMinigame:   true,
	network.ActionSetInteractable: true,
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 50, "Number of concurrent clients")
	interval := flag.Duration("interval", 150*time.Millisecond, "Action interval per client")
	duration := flag.Duration("duration", 60*time.Second, "Test duration")
	chaos := flag.Bool("disruptive", false, "Include sleep and mode actions")
	output := flag.String("out", "stress_test_results.json", "Results file")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		Disruptive:     *chaos,
		Output:         *output,
	}
	log := logger.NewLogger()

	log.Info("agitator starting",
		"server", config.ServerURL,
		"clients", config.NumClients,
		"interval", config.ActionInterval,
		"duration", config.TestDuration,
		"disruptive", config.Disruptive,
	)

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	stats := runStressTest(ctx, config, log)

	if err := printResults(stats, config); err != nil {
		log.Error("failed to write results", "error", err)
		os.Exit(1)
	}
}

func runStressTest(ctx context.Context, config Config, log *logger.Logger) *Stats {
	stats := &Stats{
		Latencies: make([]time.Duration, 0, 10000),
	}
	types := actionPool(config.Disruptive)

	var wg sync.WaitGroup
	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, types, stats, log)
		}(i)

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}
	log.Info("all clients started", "clients", config.NumClients)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Info("progress",
					"sent", atomic.LoadInt64(&stats.MessagesSent),
					"received", atomic.LoadInt64(&stats.MessagesReceived),
					"rejected", atomic.LoadInt64(&stats.Rejected),
					"errors", atomic.LoadInt64(&stats.Errors),
				)
			}
		}
	}()

	wg.Wait()
	return stats
}

func actionPool(withDisruptive bool) []string {
	var out []string
	for _, t := range network.ActionTypes() {
		if disruptive[t] && !withDisruptive {
			continue
		}
		out = append(out, t)
	}
	return out
}

func runClient(ctx context.Context, clientID int, config Config, types []string, stats *Stats, log *logger.Logger) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Warn("connection failed", "client", clientID, "error", err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	var pending sync.Map // request id -> send time

	go func() {
		for {
			var msg network.ServerMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			atomic.AddInt64(&stats.MessagesReceived, 1)
			if msg.Kind != network.KindResult || msg.Result == nil {
				continue
			}

			atomic.AddInt64(&stats.Results, 1)
			if !msg.Result.OK {
				atomic.AddInt64(&stats.Rejected, 1)
			}
			if sent, ok := pending.LoadAndDelete(msg.Result.RequestID); ok {
				stats.observe(time.Since(sent.(time.Time)))
			}
		}
	}()

	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()

	for seq := 0; ; seq++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			action := generateRandomAction(fmt.Sprintf("c%03d-%d", clientID, seq), types)
			pending.Store(action.RequestID, time.Now())

			if err := conn.WriteJSON(action); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}
			atomic.AddInt64(&stats.MessagesSent, 1)
		}
	}
}

func generateRandomAction(requestID string, types []string) network.PlayerAction {
	action := network.PlayerAction{
		RequestID: requestID,
		Type:      types[rand.IntN(len(types))],
	}

	members := family.All()
	var payload any
	switch action.Type {
	case network.ActionEat, network.ActionDrink, network.ActionMedicate,
		network.ActionSendForFood, network.ActionTalk:
		action.Member = string(members[rand.IntN(len(members))])

	case network.ActionAddFuel, network.ActionAddWater:
		payload = map[string]float64{"amount": float64(1 + rand.IntN(3))}

	case network.ActionBreakFurniture:
		kinds := supply.Kinds()
		payload = map[string]string{"kind": string(kinds[rand.IntN(len(kinds))])}

	case network.ActionSetMode:
		modes := []string{"PLAYING", "PAUSED", "PHONE"}
		payload = map[string]string{"mode": modes[rand.IntN(len(modes))]}

	case network.ActionStartMinigame:
		games := []string{"SNOW_GATHERING", "SNOW_MELTING", "FURNITURE_BREAKING", "FIRE_REFUELING"}
		payload = map[string]string{"minigame": games[rand.IntN(len(games))]}

	case network.ActionSetInteractable:
		payload = map[string]string{"label": "Fireplace"}
	}

	if payload != nil {
		action.Payload, _ = json.Marshal(payload)
	}
	return action
}

func printResults(stats *Stats, config Config) error {
	sent := atomic.LoadInt64(&stats.MessagesSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	results := atomic.LoadInt64(&stats.Results)
	rejected := atomic.LoadInt64(&stats.Rejected)
	errs := atomic.LoadInt64(&stats.Errors)
	throughput := float64(sent) / config.TestDuration.Seconds()

	fmt.Println("=========================================")
	fmt.Println("STRESS TEST RESULTS")
	fmt.Println("=========================================")
	fmt.Printf("Actions Sent:      %d\n", sent)
	fmt.Printf("Messages Received: %d\n", recv)
	fmt.Printf("Results:           %d (%d rejected)\n", results, rejected)
	fmt.Printf("Errors:            %d\n", errs)
	fmt.Printf("Error Rate:        %.2f%%\n", float64(errs)/float64(sent+1)*100)
	fmt.Printf("Throughput:        %.2f actions/sec\n", throughput)

	stats.mu.Lock()
	latencies := stats.Latencies
	stats.mu.Unlock()

	var minLat, avgLat, maxLat time.Duration
	if len(latencies) > 0 {
		var total time.Duration
		minLat, maxLat = latencies[0], latencies[0]
		for _, l := range latencies {
			total += l
			minLat = min(minLat, l)
			maxLat = max(maxLat, l)
		}
		avgLat = total / time.Duration(len(latencies))

		fmt.Printf("\nRound trip:\n")
		fmt.Printf("  Min: %v\n", minLat)
		fmt.Printf("  Avg: %v\n", avgLat)
		fmt.Printf("  Max: %v\n", maxLat)
	}

	fmt.Println("-----------------------------------------")
	switch {
	case errs == 0 && results >= sent*9/10:
		fmt.Println("PASSED: the server answered the load")
	case float64(errs)/float64(sent+1) < 0.05:
		fmt.Println("WARNING: some errors or unanswered actions")
	default:
		fmt.Println("FAILED: high error rate")
	}

	out := map[string]interface{}{
		"actions_sent":       sent,
		"messages_received":  recv,
		"results":            results,
		"rejected":           rejected,
		"errors":             errs,
		"throughput_per_sec": throughput,
		"latency_ms": map[string]float64{
			"min": float64(minLat) / 1e6,
			"avg": float64(avgLat) / 1e6,
			"max": float64(maxLat) / 1e6,
		},
		"config": map[string]interface{}{
			"clients":    config.NumClients,
			"interval":   config.ActionInterval.String(),
			"duration":   config.TestDuration.String(),
			"disruptive": config.Disruptive,
		},
	}

	jsonData, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(config.Output, jsonData, 0644); err != nil {
		return err
	}
	fmt.Printf("Results saved to %s\n", config.Output)
	return nil
}
