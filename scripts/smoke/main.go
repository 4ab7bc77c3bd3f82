package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vovakirdan/coderooms-server/internal/proto"
)

func main() {
	base := flag.String("addr", "http://localhost:3000", "server base URL")
	room := flag.String("room", "BCS Section A", "room name")
	author := flag.String("author", "smoke", "author name")
	code := flag.String("code", "print('hello from smoke test')", "snippet to post")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := &http.Client{Timeout: *timeout}

	var r proto.Room
	mustDo(ctx, client, http.MethodPost, *base+"/api/rooms", map[string]string{"name": *room}, &r)
	fmt.Printf("room: id=%s slug=%s\n", r.ID, r.Slug)

	var before []proto.Message
	mustDo(ctx, client, http.MethodGet, *base+"/api/rooms/"+url.PathEscape(r.Slug)+"/messages?limit=1", nil, &before)
	var since int64
	if len(before) > 0 {
		since = before[0].CreatedAt
	}

	var posted proto.PostAck
	mustDo(ctx, client, http.MethodPost, *base+"/api/rooms/"+url.PathEscape(r.Slug)+"/messages",
		map[string]string{"author": *author, "code": *code}, &posted)
	fmt.Printf("posted: id=%s created_at=%d\n", posted.ID, posted.CreatedAt)

	var polled []proto.Message
	mustDo(ctx, client, http.MethodGet,
		*base+"/api/rooms/"+url.PathEscape(r.Slug)+"/messages?since="+strconv.FormatInt(since, 10), nil, &polled)
	for _, m := range polled {
		if m.ID == posted.ID {
			fmt.Printf("poll ok: %d new message(s)\n", len(polled))
			return
		}
	}
	log.Fatalf("posted message %s not returned by poll since=%d", posted.ID, since)
}

func mustDo(ctx context.Context, client *http.Client, method, target string, body, out any) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			log.Fatalf("encode: %v", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e proto.Error
		_ = json.NewDecoder(resp.Body).Decode(&e)
		log.Fatalf("%s %s: status %d: %s (%s)", method, target, resp.StatusCode, e.Error, e.Code)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Fatalf("decode: %v", err)
	}
}
