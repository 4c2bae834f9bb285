// A small fake tracker API for exercising the gateway locally. It serves
// the proxied routes with in-memory data, an optional artificial latency,
// and an injectable failure rate (FAIL_RATE=0.5 makes roughly half of the
// boundary-crossing calls return 502, which is handy for watching the
// circuit breaker trip).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type user struct {
	Handle string `json:"handle"`
	Score  int    `json:"score"`
	Tier   string `json:"tier"`
}

type trackerStub struct {
	mu        sync.Mutex
	users     map[string]*user
	referrals map[string]int
	failRate  float64
	latency   time.Duration
}

func tierFor(score int) string {
	switch {
	case score >= 500:
		return "Diamond"
	case score >= 200:
		return "Gold"
	case score >= 50:
		return "Silver"
	default:
		return "Bronze"
	}
}

func (s *trackerStub) flaky(w http.ResponseWriter) bool {
	if s.latency > 0 {
		time.Sleep(s.latency)
	}
	if s.failRate > 0 && rand.Float64() < s.failRate {
		http.Error(w, "upstream data api error", http.StatusBadGateway)
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	stub := &trackerStub{
		users: map[string]*user{
			"alice": {Handle: "alice", Score: 620, Tier: "Diamond"},
			"bob":   {Handle: "bob", Score: 210, Tier: "Gold"},
			"carol": {Handle: "carol", Score: 64, Tier: "Silver"},
		},
		referrals: map[string]int{"alice": 3},
	}
	if v := os.Getenv("FAIL_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			stub.failRate = f
		}
	}
	if v := os.Getenv("LATENCY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			stub.latency = d
		}
	}

	r := chi.NewRouter()

	r.Post("/user/{handle}", func(w http.ResponseWriter, req *http.Request) {
		if stub.flaky(w) {
			return
		}
		handle := chi.URLParam(req, "handle")
		score := rand.Intn(700)
		stub.mu.Lock()
		stub.users[handle] = &user{Handle: handle, Score: score, Tier: tierFor(score)}
		stub.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"message": "User " + handle + " synced"})
	})

	r.Put("/user/{handle}", func(w http.ResponseWriter, req *http.Request) {
		if stub.flaky(w) {
			return
		}
		handle := chi.URLParam(req, "handle")
		stub.mu.Lock()
		u, ok := stub.users[handle]
		if ok {
			u.Score = rand.Intn(700)
			u.Tier = tierFor(u.Score)
		}
		stub.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "User not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "User " + handle + " refreshed"})
	})

	r.Delete("/user/{handle}", func(w http.ResponseWriter, req *http.Request) {
		if stub.flaky(w) {
			return
		}
		handle := chi.URLParam(req, "handle")
		stub.mu.Lock()
		delete(stub.users, handle)
		stub.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"message": "User " + handle + " removed"})
	})

	r.Get("/leaderboard", func(w http.ResponseWriter, req *http.Request) {
		stub.mu.Lock()
		out := make([]user, 0, len(stub.users))
		for _, u := range stub.users {
			out = append(out, *u)
		}
		stub.mu.Unlock()
		sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
		if len(out) > 10 {
			out = out[:10]
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Get("/rank/{handle}", func(w http.ResponseWriter, req *http.Request) {
		handle := chi.URLParam(req, "handle")
		stub.mu.Lock()
		u, ok := stub.users[handle]
		rank := 1
		if ok {
			for _, other := range stub.users {
				if other.Score > u.Score {
					rank++
				}
			}
		}
		stub.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "User not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"handle": u.Handle, "score": u.Score, "rank": rank, "tier": u.Tier,
		})
	})

	r.Get("/points/{handle}", func(w http.ResponseWriter, req *http.Request) {
		if stub.flaky(w) {
			return
		}
		handle := chi.URLParam(req, "handle")
		stub.mu.Lock()
		u, ok := stub.users[handle]
		stub.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "User not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"handle": u.Handle, "points": u.Score})
	})

	r.Post("/referral/use", func(w http.ResponseWriter, req *http.Request) {
		if stub.flaky(w) {
			return
		}
		var body struct {
			Username string `json:"username"`
			Code     string `json:"code"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Username == "" || body.Code == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "username and code are required"})
			return
		}
		stub.mu.Lock()
		stub.referrals[body.Username]++
		count := stub.referrals[body.Username]
		stub.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Referral code applied", "username": body.Username, "referrals": count,
		})
	})

	r.Get("/referral/stats/{username}", func(w http.ResponseWriter, req *http.Request) {
		username := chi.URLParam(req, "username")
		stub.mu.Lock()
		count := stub.referrals[username]
		stub.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"username": username, "referrals": count})
	})

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("example upstream listening", zap.String("addr", addr), zap.Float64("fail_rate", stub.failRate))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
