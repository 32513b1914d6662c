package judgeclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"battle-companion/internal/battle"
	"battle-companion/internal/config"
)

type judgeStub struct {
	mu       sync.Mutex
	requests []*http.Request
	forms    []url.Values
	replies  map[string]string
}

func (s *judgeStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	form, _ := url.ParseQuery(string(body))
	s.mu.Lock()
	s.requests = append(s.requests, r)
	s.forms = append(s.forms, form)
	reply, ok := s.replies[r.URL.Path]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, reply)
}

func (s *judgeStub) formFor(path string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.requests {
		if r.URL.Path == path {
			return s.forms[i]
		}
	}
	return nil
}

func newStubRemote(t *testing.T, replies map[string]string) (*BattleRemote, *judgeStub) {
	t.Helper()
	stub := &judgeStub{replies: replies}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	cfg := config.ClientConfig{
		JudgeBaseURL:     srv.URL + "/",
		JudgeCookie:      "t=abc",
		BattleType:       2,
		DefaultRankScore: 1000,
		RequestTimeout:   time.Second,
	}
	return NewBattleRemote(New(cfg), cfg), stub
}

func TestRequestMatchSendsRankAndMode(t *testing.T) {
	remote, stub := newStubRemote(t, map[string]string{
		battlePrefix + "info":  `{"code":0,"msg":"ok","data":{"levelScore":1320,"winCount":3,"totalCount":5,"type":2}}`,
		battlePrefix + "match": `{"code":0,"msg":"ok","data":{"matched":true,"roomId":9007199254740993,"opponentId":"77","problemId":12,"startTime":1700000000000}}`,
	})

	res, err := remote.RequestMatch(context.Background(), battle.ModeAI)
	if err != nil {
		t.Fatalf("request match: %v", err)
	}
	if !res.Matched || res.RoomID != "9007199254740993" || res.OpponentID != "77" || res.ProblemID != "12" {
		t.Fatalf("result = %+v", res)
	}
	if !res.StartTime.Equal(time.UnixMilli(1700000000000)) {
		t.Fatalf("start time = %v", res.StartTime)
	}

	form := stub.formFor(battlePrefix + "match")
	if form.Get("rankScore") != "1320" || form.Get("mode") != "single" {
		t.Fatalf("match form = %v", form)
	}
	stub.mu.Lock()
	first := stub.requests[0]
	stub.mu.Unlock()
	if first.URL.Query().Get("type") != "2" {
		t.Fatalf("info query = %q", first.URL.RawQuery)
	}
	if first.Header.Get("Cookie") != "t=abc" {
		t.Fatalf("cookie = %q", first.Header.Get("Cookie"))
	}
}

func TestRequestMatchFallsBackToDefaultRank(t *testing.T) {
	remote, stub := newStubRemote(t, map[string]string{
		battlePrefix + "match": `{"code":0,"data":{"matched":false}}`,
	})

	res, err := remote.RequestMatch(context.Background(), battle.ModeOneVOne)
	if err != nil {
		t.Fatalf("request match: %v", err)
	}
	if res.Matched || res.HasStartTime() {
		t.Fatalf("result = %+v", res)
	}
	form := stub.formFor(battlePrefix + "match")
	if form.Get("rankScore") != "1000" || form.Get("mode") != "1v1" {
		t.Fatalf("match form = %v", form)
	}
}

func TestPollConflictReply(t *testing.T) {
	remote, _ := newStubRemote(t, map[string]string{
		battlePrefix + "poll": `{"code":0,"data":{"alreadyInRoom":"true","roomId":"r5","startTime":null}}`,
	})

	res, err := remote.PollMatch(context.Background())
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	d, ok := battle.ResolveConflict(res)
	if !ok || d.RoomID != "r5" || d.IsActiveBattle {
		t.Fatalf("decision = %+v, %v", d, ok)
	}
}

func TestNonZeroEnvelopeCodeIsAPIError(t *testing.T) {
	remote, _ := newStubRemote(t, map[string]string{
		battlePrefix + "cancel": `{"code":"401","msg":"not logged in"}`,
	})

	err := remote.CancelMatch(context.Background(), battle.ModeOneVOne)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Code != 401 || apiErr.Msg != "not logged in" {
		t.Fatalf("api error = %+v", apiErr)
	}
}

func TestHTTPFailureIsPlainError(t *testing.T) {
	remote, _ := newStubRemote(t, map[string]string{})

	err := remote.ForceAbandon(context.Background())
	if err == nil {
		t.Fatal("expected error for 404")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("404 reported as APIError: %v", err)
	}
}

func TestRoomCreateAndJoin(t *testing.T) {
	remote, stub := newStubRemote(t, map[string]string{
		battlePrefix + "room/create":  `{"code":0,"data":{"success":true,"roomId":"room-1","roomCode":"abc"}}`,
		battlePrefix + "room/join":    `{"code":0,"data":{"success":1,"roomId":"room-1","opponentId":5,"startTime":"1700000000000"}}`,
		battlePrefix + "room/disband": `{"code":0,"data":null}`,
	})

	created, err := remote.CreateRoom(context.Background(), "abc")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.Success || created.RoomID != "room-1" || created.RoomCode != "abc" {
		t.Fatalf("created = %+v", created)
	}
	if got := stub.formFor(battlePrefix + "room/create").Get("roomCode"); got != "abc" {
		t.Fatalf("create roomCode = %q", got)
	}

	joined, err := remote.JoinRoom(context.Background(), "abc")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !joined.Success || joined.OpponentID != "5" || !joined.StartTime.Equal(time.UnixMilli(1700000000000)) {
		t.Fatalf("joined = %+v", joined)
	}

	if err := remote.DisbandRoom(context.Background(), "abc"); err != nil {
		t.Fatalf("disband: %v", err)
	}
}

func TestMillis(t *testing.T) {
	for _, v := range []any{nil, "", 0, "0"} {
		got, err := millis(v)
		if err != nil || !got.IsZero() {
			t.Fatalf("millis(%#v) = %v, %v; want zero", v, got, err)
		}
	}
	if _, err := millis("soon"); err == nil {
		t.Fatal("millis(soon) should fail")
	}
}
