package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"liner/internal/commentary"
	"liner/internal/history"
	"liner/internal/logging"
	"liner/internal/player"
	"liner/internal/testsupport"
)

type fakeTracks struct {
	mu    sync.Mutex
	track *player.Track
	err   error
}

func (f *fakeTracks) CurrentTrack(context.Context) (*player.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.track, f.err
}

func (f *fakeTracks) set(track *player.Track) {
	f.mu.Lock()
	f.track = track
	f.mu.Unlock()
}

func (f *fakeTracks) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type fakeGenerator struct {
	mu   sync.Mutex
	err  error
	reqs []commentary.Request
}

func (f *fakeGenerator) Generate(_ context.Context, req commentary.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return "", f.err
	}
	return "Up next: " + req.TrackName + ".", nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func (f *fakeGenerator) request(i int) commentary.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[i]
}

func (f *fakeGenerator) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// fakeSpeaker plays instantly unless block is set, in which case Play stays
// live until Cancel or context cancellation, like a real player subprocess.
type fakeSpeaker struct {
	mu         sync.Mutex
	speaking   bool
	block      bool
	synthErr   error
	synthCalls int
	played     []string
	cancels    int
	cancelCh   chan struct{}

	playStartedCh chan string
}

func newFakeSpeaker() *fakeSpeaker {
	return &fakeSpeaker{playStartedCh: make(chan string, 8)}
}

func (f *fakeSpeaker) IsSpeaking() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.speaking
}

func (f *fakeSpeaker) Cancel() {
	f.mu.Lock()
	f.cancels++
	ch := f.cancelCh
	f.cancelCh = nil
	f.speaking = false
	f.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

func (f *fakeSpeaker) Synthesize(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synthCalls++
	if f.synthErr != nil {
		return "", f.synthErr
	}
	return fmt.Sprintf("/tmp/announce-%d.mp3", f.synthCalls), nil
}

func (f *fakeSpeaker) Play(ctx context.Context, path string) (bool, error) {
	f.mu.Lock()
	f.played = append(f.played, path)
	f.speaking = true
	var ch chan struct{}
	if f.block {
		ch = make(chan struct{})
		f.cancelCh = ch
	}
	f.mu.Unlock()

	f.playStartedCh <- path

	if ch == nil {
		f.mu.Lock()
		f.speaking = false
		f.mu.Unlock()
		return true, nil
	}
	select {
	case <-ch:
		return false, nil
	case <-ctx.Done():
		f.mu.Lock()
		f.speaking = false
		f.mu.Unlock()
		return false, nil
	}
}

func (f *fakeSpeaker) setBlock(block bool) {
	f.mu.Lock()
	f.block = block
	f.mu.Unlock()
}

func (f *fakeSpeaker) setSynthErr(err error) {
	f.mu.Lock()
	f.synthErr = err
	f.mu.Unlock()
}

func (f *fakeSpeaker) playCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.played)
}

func (f *fakeSpeaker) synthCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.synthCalls
}

func (f *fakeSpeaker) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancels
}

type fakeDipper struct {
	mu   sync.Mutex
	dips []player.Dip
}

func (f *fakeDipper) WithDip(ctx context.Context, dip player.Dip, action func(context.Context) error) error {
	f.mu.Lock()
	f.dips = append(f.dips, dip)
	f.mu.Unlock()
	return action(ctx)
}

func (f *fakeDipper) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dips)
}

func (f *fakeDipper) last() player.Dip {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dips[len(f.dips)-1]
}

type notification struct {
	summary string
	body    string
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []notification
}

func (f *fakeNotifier) Notify(_ context.Context, summary, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, notification{summary: summary, body: body})
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notes)
}

func (f *fakeNotifier) note(i int) notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notes[i]
}

type harness struct {
	watcher   *Watcher
	tracks    *fakeTracks
	generator *fakeGenerator
	speaker   *fakeSpeaker
	dipper    *fakeDipper
	notifier  *fakeNotifier
	store     *history.Store
	settings  Settings
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	h := &harness{
		tracks:    &fakeTracks{},
		generator: &fakeGenerator{},
		speaker:   newFakeSpeaker(),
		dipper:    &fakeDipper{},
		notifier:  &fakeNotifier{},
		store:     testsupport.MustOpenStore(t, cfg),
	}
	h.watcher = New(cfg, Deps{
		Tracks:    h.tracks,
		Generator: h.generator,
		Speaker:   h.speaker,
		Dipper:    h.dipper,
		Store:     h.store,
		Notifier:  h.notifier,
	}, logging.NewNop())
	h.settings = Settings{
		PollInterval: 5 * time.Millisecond,
		Dip:          player.Dip{Level: 20, Duration: 10 * time.Millisecond, Steps: 2},
	}
	h.watcher.ApplySettings(h.settings)
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	if err := h.watcher.Start(context.Background()); err != nil {
		t.Fatalf("start watcher: %v", err)
	}
	t.Cleanup(h.watcher.Stop)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func awaitPlay(t *testing.T, speaker *fakeSpeaker) string {
	t.Helper()
	select {
	case path := <-speaker.playStartedCh:
		return path
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for playback to start")
		return ""
	}
}

func TestAnnouncesChangedTrackOnce(t *testing.T) {
	h := newHarness(t)
	h.tracks.set(&player.Track{ID: "1", Name: "Song A", Artist: "X"})
	h.start(t)

	awaitPlay(t, h.speaker)

	// The same track keeps getting polled; it must not be re-announced.
	time.Sleep(50 * time.Millisecond)
	if got := h.generator.calls(); got != 1 {
		t.Fatalf("commentary generated %d times, want 1", got)
	}
	if got := h.speaker.playCount(); got != 1 {
		t.Fatalf("playback started %d times, want 1", got)
	}
	if got := h.dipper.count(); got != 1 {
		t.Fatalf("dip applied %d times, want 1", got)
	}
	if got := h.dipper.last().Level; got != 20 {
		t.Fatalf("dip level = %d, want 20", got)
	}

	id, err := h.store.LastTrackID(context.Background())
	if err != nil {
		t.Fatalf("read last track id: %v", err)
	}
	if id != "1" {
		t.Fatalf("last track id = %q, want %q", id, "1")
	}

	records, err := h.store.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("read history: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("recorded %d announcements, want 1", len(records))
	}
	if records[0].TrackID != "1" || records[0].Commentary == "" {
		t.Fatalf("unexpected record %+v", records[0])
	}
}

func TestInterruptionCarriesPreviousTrackContext(t *testing.T) {
	h := newHarness(t)
	h.speaker.setBlock(true)
	h.tracks.set(&player.Track{ID: "1", Name: "Song A", Artist: "X"})
	h.start(t)

	awaitPlay(t, h.speaker)
	if !h.speaker.IsSpeaking() {
		t.Fatal("expected playback to be live")
	}

	h.tracks.set(&player.Track{ID: "2", Name: "Song B", Artist: "Y"})
	waitFor(t, "second generation", func() bool { return h.generator.calls() == 2 })

	req := h.generator.request(1)
	if !req.WasInterrupted {
		t.Error("expected WasInterrupted=true")
	}
	if req.InterruptedName != "Song A" || req.InterruptedArtist != "X" {
		t.Errorf("interrupted track = %q / %q, want Song A / X", req.InterruptedName, req.InterruptedArtist)
	}
	if h.speaker.cancelCount() == 0 {
		t.Error("expected the live playback to be cancelled")
	}

	awaitPlay(t, h.speaker)
}

func TestSynthesisFailureSkipsDipAndPlayback(t *testing.T) {
	h := newHarness(t)
	h.speaker.setSynthErr(errors.New("voice offline"))
	h.tracks.set(&player.Track{ID: "1", Name: "Song A", Artist: "X"})
	h.start(t)

	waitFor(t, "synthesis attempt", func() bool { return h.speaker.synthCount() == 1 })
	time.Sleep(30 * time.Millisecond)

	if got := h.dipper.count(); got != 0 {
		t.Fatalf("volume dipped %d times, want 0", got)
	}
	if got := h.speaker.playCount(); got != 0 {
		t.Fatalf("playback started %d times, want 0", got)
	}

	// The marker is already set, so the failed track is skipped, and the next
	// change announces normally.
	h.speaker.setSynthErr(nil)
	h.tracks.set(&player.Track{ID: "2", Name: "Song B", Artist: "Y"})
	awaitPlay(t, h.speaker)
	if got := h.generator.calls(); got != 2 {
		t.Fatalf("commentary generated %d times, want 2", got)
	}
}

func TestGenerationFailureSkipsTrack(t *testing.T) {
	h := newHarness(t)
	h.generator.setErr(errors.New("rate limited"))
	h.tracks.set(&player.Track{ID: "1", Name: "Song A", Artist: "X"})
	h.start(t)

	waitFor(t, "generation attempt", func() bool { return h.generator.calls() == 1 })
	time.Sleep(30 * time.Millisecond)

	if got := h.speaker.synthCount(); got != 0 {
		t.Fatalf("synthesis attempted %d times, want 0", got)
	}
	if got := h.generator.calls(); got != 1 {
		t.Fatalf("failed track retried: %d generations", got)
	}

	h.generator.setErr(nil)
	h.tracks.set(&player.Track{ID: "2", Name: "Song B", Artist: "Y"})
	awaitPlay(t, h.speaker)

	req := h.generator.request(1)
	if req.WasInterrupted {
		t.Error("no playback was live, WasInterrupted should be false")
	}
}

func TestResumesMarkerAcrossRestart(t *testing.T) {
	h := newHarness(t)
	if err := h.store.SetLastTrackID(context.Background(), "1"); err != nil {
		t.Fatalf("seed marker: %v", err)
	}
	h.tracks.set(&player.Track{ID: "1", Name: "Song A", Artist: "X"})
	h.start(t)

	time.Sleep(50 * time.Millisecond)
	if got := h.generator.calls(); got != 0 {
		t.Fatalf("restart re-announced the playing track: %d generations", got)
	}

	h.tracks.set(&player.Track{ID: "2", Name: "Song B", Artist: "Y"})
	awaitPlay(t, h.speaker)
}

func TestApplySettingsChangesNextCycle(t *testing.T) {
	h := newHarness(t)
	h.tracks.set(&player.Track{ID: "1", Name: "Song A", Artist: "X"})
	h.start(t)
	awaitPlay(t, h.speaker)

	reloaded := h.settings
	reloaded.Dip.Level = 35
	h.watcher.ApplySettings(reloaded)

	h.tracks.set(&player.Track{ID: "2", Name: "Song B", Artist: "Y"})
	awaitPlay(t, h.speaker)
	waitFor(t, "second dip", func() bool { return h.dipper.count() == 2 })

	if got := h.dipper.last().Level; got != 35 {
		t.Fatalf("dip level after reload = %d, want 35", got)
	}
}

func TestNotifiesOnAnnounceWhenEnabled(t *testing.T) {
	h := newHarness(t)
	h.settings.NotifyOnAnnounce = true
	h.watcher.ApplySettings(h.settings)
	h.tracks.set(&player.Track{ID: "1", Name: "Song A", Artist: "X"})
	h.start(t)

	awaitPlay(t, h.speaker)
	waitFor(t, "notification", func() bool { return h.notifier.count() == 1 })

	note := h.notifier.note(0)
	if note.summary != "Song A - X" {
		t.Errorf("notification summary = %q", note.summary)
	}
	if note.body == "" {
		t.Error("notification body should carry the commentary text")
	}
}

func TestNoNotificationWhenDisabled(t *testing.T) {
	h := newHarness(t)
	h.tracks.set(&player.Track{ID: "1", Name: "Song A", Artist: "X"})
	h.start(t)

	awaitPlay(t, h.speaker)
	time.Sleep(30 * time.Millisecond)
	if got := h.notifier.count(); got != 0 {
		t.Fatalf("sent %d notifications with notify disabled", got)
	}
}

func TestRecentHistoryFeedsGeneration(t *testing.T) {
	h := newHarness(t)
	now := time.Now().UTC()
	testsupport.RecordAnnouncement(t, h.store, "8", "Old Eight", "Older line.", now.Add(-2*time.Minute))
	testsupport.RecordAnnouncement(t, h.store, "9", "Old Nine", "Newest line.", now.Add(-time.Minute))

	h.tracks.set(&player.Track{ID: "1", Name: "Song A", Artist: "X"})
	h.start(t)
	waitFor(t, "generation", func() bool { return h.generator.calls() == 1 })

	req := h.generator.request(0)
	if len(req.Recent) != 2 {
		t.Fatalf("recent history has %d lines, want 2", len(req.Recent))
	}
	if req.Recent[0] != "Newest line." || req.Recent[1] != "Older line." {
		t.Fatalf("recent history out of order: %v", req.Recent)
	}
}

func TestTrackPollFailureSkipsTick(t *testing.T) {
	h := newHarness(t)
	h.tracks.setErr(errors.New("mpd unreachable"))
	h.start(t)

	time.Sleep(30 * time.Millisecond)
	if got := h.generator.calls(); got != 0 {
		t.Fatalf("generated commentary despite poll failures: %d", got)
	}

	h.tracks.setErr(nil)
	h.tracks.set(&player.Track{ID: "1", Name: "Song A", Artist: "X"})
	awaitPlay(t, h.speaker)
}

func TestStopKillsActivePlayback(t *testing.T) {
	h := newHarness(t)
	h.speaker.setBlock(true)
	h.tracks.set(&player.Track{ID: "1", Name: "Song A", Artist: "X"})
	h.start(t)
	awaitPlay(t, h.speaker)

	done := make(chan struct{})
	go func() {
		h.watcher.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return while playback was live")
	}
	if h.speaker.IsSpeaking() {
		t.Error("playback should be stopped after Stop")
	}
}

func TestStartTwiceFails(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	if err := h.watcher.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail while running")
	}
}
