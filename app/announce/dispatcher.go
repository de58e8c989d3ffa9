package announce

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/smolin/newswatch/app/alert"
	"github.com/smolin/newswatch/app/feed"
)

const (
	CategoryImportant = "important"
	CategoryKeyword   = "keyword"
)

const (
	defaultImportantSpeechDelay   = 1 * time.Second
	defaultKeywordSpeechDelay     = 1 * time.Second
	defaultKeywordSpeechDelayBusy = 4 * time.Second

	titleSpeechCap = 10 * time.Second
	fullSpeechCap  = 30 * time.Second
)

// Dispatcher turns a classification result into sounds, notifications, and
// at most one spoken announcement at a time. A speak attempt while speech
// is active is dropped, not queued.
type Dispatcher struct {
	sound     SoundPlayer
	speaker   Speaker
	notifiers []Notifier

	// Speech delays, overridable in tests.
	ImportantSpeechDelay   time.Duration
	KeywordSpeechDelay     time.Duration
	KeywordSpeechDelayBusy time.Duration

	mu       sync.Mutex
	speaking bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher(sound SoundPlayer, speaker Speaker, notifiers []Notifier) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		sound:                  sound,
		speaker:                speaker,
		notifiers:              notifiers,
		ImportantSpeechDelay:   defaultImportantSpeechDelay,
		KeywordSpeechDelay:     defaultKeywordSpeechDelay,
		KeywordSpeechDelayBusy: defaultKeywordSpeechDelayBusy,
		ctx:                    ctx,
		cancel:                 cancel,
	}
}

// Stop cancels any pending or active speech and waits for it to wind down.
func (d *Dispatcher) Stop() {
	d.cancel()
	d.wg.Wait()
}

// Run dispatches one classification result. Importance is handled before
// keyword matches; when both schedule speech in the same cycle, the keyword
// utterance waits longer so the announcements do not overlap.
func (d *Dispatcher) Run(ctx context.Context, c alert.Classification, settings alert.Settings) {
	importantScheduled := false

	if len(c.NewlyImportant) > 0 {
		d.playSound(ctx, settings.Sounds.Important)

		for _, item := range c.NewlyImportant {
			d.notifyAll(ctx, Notification{
				Title:    feed.ExtractTitle(item.Text),
				Body:     feed.ExtractBody(item.Text),
				Category: CategoryImportant,
			})
		}

		if settings.Important.Speech {
			d.scheduleSpeech(c.NewlyImportant[0], settings.Important.FullContent,
				settings.SpeechRate, d.ImportantSpeechDelay)
			importantScheduled = true
		}
	}

	if len(c.KeywordMatches) > 0 {
		d.playSound(ctx, settings.Sounds.Keyword)

		for _, match := range c.KeywordMatches {
			d.notifyAll(ctx, Notification{
				Title:    feed.ExtractTitle(match.Item.Text),
				Body:     feed.ExtractBody(match.Item.Text),
				Category: CategoryKeyword,
				Keyword:  match.Keyword,
			})
		}

		if settings.Keyword.Speech {
			delay := d.KeywordSpeechDelay
			if importantScheduled {
				delay = d.KeywordSpeechDelayBusy
			}
			d.scheduleSpeech(c.KeywordMatches[0].Item, settings.Keyword.FullContent,
				settings.SpeechRate, delay)
		}
	}
}

func (d *Dispatcher) playSound(ctx context.Context, name string) {
	if d.sound == nil || name == "" {
		return
	}
	if err := d.sound.Play(ctx, name); err != nil {
		slog.Warn("Failed to play alert sound", "sound", name, "error", err)
	}
}

func (d *Dispatcher) notifyAll(ctx context.Context, n Notification) {
	for _, notifier := range d.notifiers {
		if err := notifier.Notify(ctx, n); err != nil {
			slog.Warn("Failed to deliver notification", "category", n.Category, "error", err)
		}
	}
}

func (d *Dispatcher) scheduleSpeech(item feed.Item, fullContent bool, rate float64, delay time.Duration) {
	if d.speaker == nil {
		return
	}

	text := feed.ExtractTitle(item.Text)
	if fullContent {
		if body := feed.ExtractBody(item.Text); body != "" {
			text = body
		}
	}
	if text == "" {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		select {
		case <-d.ctx.Done():
			return
		case <-time.After(delay):
		}

		if !d.tryBeginSpeech() {
			slog.Warn("Speech already active, dropping utterance", "text_len", utf8.RuneCountInString(text))
			return
		}
		defer d.endSpeech()

		// Completion is the process exiting; the duration estimate only
		// caps a hung player.
		speechCtx, cancel := context.WithTimeout(d.ctx, estimateSpeechDuration(text, rate, fullContent))
		defer cancel()

		if err := d.speaker.Speak(speechCtx, text, rate); err != nil {
			slog.Warn("Speech failed", "error", err)
		}
	}()
}

func (d *Dispatcher) tryBeginSpeech() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.speaking {
		return false
	}
	d.speaking = true
	return true
}

func (d *Dispatcher) endSpeech() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.speaking = false
}

// estimateSpeechDuration derives an upper bound for an utterance from its
// character count and the speech rate in characters per minute. Title-only
// and full-content utterances carry different caps.
func estimateSpeechDuration(text string, rate float64, fullContent bool) time.Duration {
	if rate <= 0 {
		rate = 240
	}

	perSecond := rate / 60.0
	seconds := float64(utf8.RuneCountInString(text))/perSecond + 1

	limit := titleSpeechCap
	if fullContent {
		limit = fullSpeechCap
	}

	estimated := time.Duration(seconds * float64(time.Second))
	if estimated > limit {
		return limit
	}
	return estimated
}
