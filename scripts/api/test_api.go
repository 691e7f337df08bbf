// Minimal end‑to‑end integration test for the BookTok Viral API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
)

var baseURL = getenv("API_URL", "http://localhost:8080/v1")

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	email := fmt.Sprintf("smoke-%s@example.com", uuid.NewString()[:8])
	token := register(email)
	login(email)

	asin := randomASIN()
	bookID := submit(token, asin)
	checkBook(asin)

	castVote(bookID)
	checkVote(bookID)
	checkLeaderboard(asin)
	checkWinners()

	fmt.Println("✓ all endpoints passed")
}

// ----------------------------- auth

func register(email string) string {
	var resp struct{ Token string }
	doJSON("POST", "/auth/register", map[string]any{
		"email":    email,
		"password": "smoke-test-password",
	}, &resp, http.StatusCreated)
	if resp.Token == "" {
		log.Fatal("register: empty token")
	}
	return resp.Token
}

func login(email string) {
	var resp struct{ Token string }
	doJSON("POST", "/auth/login", map[string]any{
		"email":    email,
		"password": "smoke-test-password",
	}, &resp, http.StatusOK)
	if resp.Token == "" {
		log.Fatal("login: empty token")
	}
}

// ----------------------------- books

func randomASIN() string {
	// B + 9 hex chars from a fresh UUID keeps reruns from colliding.
	return "B" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:9]
}

func submit(tok, asin string) string {
	var resp struct{ BookID string }
	doAuth(tok, "POST", "/submit", map[string]any{
		"asin":     asin,
		"category": "smoke-test",
	}, &resp, http.StatusCreated)
	if resp.BookID == "" {
		log.Fatal("submit: empty bookId")
	}
	return resp.BookID
}

func checkBook(asin string) {
	var resp struct {
		Book struct{ ASIN string }
	}
	doJSON("GET", "/books/"+asin, nil, &resp, http.StatusOK)
	if resp.Book.ASIN != asin {
		log.Fatalf("books: want %s got %s", asin, resp.Book.ASIN)
	}
}

// ----------------------------- votes

func castVote(bookID string) {
	var resp struct{ VoteCount int64 }
	doJSON("POST", "/vote", map[string]any{"bookId": bookID}, &resp, http.StatusOK)
	if resp.VoteCount == 0 {
		log.Fatal("vote: count not incremented")
	}
}

func checkVote(bookID string) {
	// A fresh request carries no voter cookie, so this must come back false.
	var resp struct{ HasVoted bool }
	doJSON("GET", "/check-vote?bookId="+bookID, nil, &resp, http.StatusOK)
	if resp.HasVoted {
		log.Fatal("check-vote: cookieless client reported as having voted")
	}
}

func checkLeaderboard(asin string) {
	var resp struct {
		Books []struct {
			ASIN      string
			VoteCount int64
		}
	}
	doJSON("GET", "/books", nil, &resp, http.StatusOK)
	for _, b := range resp.Books {
		if b.ASIN == asin && b.VoteCount >= 1 {
			return
		}
	}
	log.Fatal("books: submitted book missing from leaderboard")
}

func checkWinners() {
	var resp struct{ Weeks []any }
	doJSON("GET", "/winners", nil, &resp, http.StatusOK)
}

// ----------------------------- helpers

func doAuth(token, method, path string, body, out any, want int) {
	doReq(method, path, token, body, out, want)
}

func doJSON(method, path string, body, out any, want int) {
	doReq(method, path, "", body, out, want)
}

func doReq(method, path, token string, body, out any, want int) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	req, _ := http.NewRequest(method, baseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != want {
		log.Fatalf("%s %s: want %d got %d", method, path, want, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
}
