package callstack_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/typewriter/internal/callstack"
)

// trace collects command names in the order their bodies ran.
type trace struct {
	mu    sync.Mutex
	names []string
}

func (t *trace) step(name string, d time.Duration) callstack.Func {
	return func(ctx context.Context) error {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}
		t.mu.Lock()
		t.names = append(t.names, name)
		t.mu.Unlock()
		return nil
	}
}

func (t *trace) get() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.names...)
}

var _ = Describe("Scheduler", func() {
	var (
		s  *callstack.Scheduler
		tr *trace
	)

	BeforeEach(func() {
		tr = &trace{}
	})

	AfterEach(func() {
		if s != nil {
			s.Stop()
		}
	})

	Context("without a loop region", func() {
		BeforeEach(func() {
			s = callstack.New()
		})

		It("runs commands in append order even when earlier ones are slower", func() {
			var mu sync.Mutex
			finished := map[string]time.Time{}
			s = callstack.New(callstack.WithObserver(callstack.ObserverFunc(func(ev callstack.Event) {
				if ev.Phase == callstack.Finished {
					mu.Lock()
					finished[ev.Name] = ev.At
					mu.Unlock()
				}
			})))

			_, err := s.Enqueue("slow", tr.step("slow", 30*time.Millisecond))
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Enqueue("fast", tr.step("fast", time.Millisecond))
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Enqueue("mid", tr.step("mid", 10*time.Millisecond))
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Idle(context.Background())).To(Succeed())
			Expect(tr.get()).To(Equal([]string{"slow", "fast", "mid"}))

			mu.Lock()
			defer mu.Unlock()
			Expect(finished["slow"].Before(finished["fast"])).To(BeTrue())
			Expect(finished["fast"].Before(finished["mid"])).To(BeTrue())
		})

		It("never overlaps two commands", func() {
			var active, peak int
			var mu sync.Mutex
			body := func(ctx context.Context) error {
				mu.Lock()
				active++
				if active > peak {
					peak = active
				}
				mu.Unlock()
				time.Sleep(2 * time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			}
			for i := 0; i < 10; i++ {
				_, err := s.Enqueue("step", body)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(s.Idle(context.Background())).To(Succeed())
			Expect(peak).To(Equal(1))
		})

		It("goes idle and wakes on the next enqueue", func() {
			_, _ = s.Enqueue("a", tr.step("a", 0))
			Expect(s.Idle(context.Background())).To(Succeed())
			Expect(s.Queue()).To(BeEmpty())

			_, _ = s.Enqueue("b", tr.step("b", 0))
			Expect(s.Idle(context.Background())).To(Succeed())
			Expect(tr.get()).To(Equal([]string{"a", "b"}))
		})

		It("issues a distinct ticket per command", func() {
			t1, _ := s.Enqueue("a", tr.step("a", 0))
			t2, _ := s.Enqueue("a", tr.step("a", 0))
			Expect(t1).NotTo(Equal(uuid.Nil))
			Expect(t1).NotTo(Equal(t2))
		})
	})

	Context("when a command fails", func() {
		It("reports a CommandError and keeps running", func() {
			boom := errors.New("boom")
			var mu sync.Mutex
			var reported []error
			s = callstack.New(callstack.WithErrorHandler(func(err error) {
				mu.Lock()
				reported = append(reported, err)
				mu.Unlock()
			}))

			ticket, _ := s.Enqueue("bad", func(context.Context) error { return boom })
			_, _ = s.Enqueue("after", tr.step("after", 0))
			Expect(s.Idle(context.Background())).To(Succeed())

			Expect(tr.get()).To(Equal([]string{"after"}))
			mu.Lock()
			defer mu.Unlock()
			Expect(reported).To(HaveLen(1))
			Expect(reported[0]).To(MatchError(boom))
			var cmdErr *callstack.CommandError
			Expect(errors.As(reported[0], &cmdErr)).To(BeTrue())
			Expect(cmdErr.Ticket).To(Equal(ticket))
			Expect(cmdErr.Name).To(Equal("bad"))
		})
	})

	Context("with a loop region", func() {
		BeforeEach(func() {
			s = callstack.New()
		})

		It("records commands after StartLoop instead of running them", func() {
			release := make(chan struct{})
			_, _ = s.Enqueue("before", func(ctx context.Context) error {
				<-release
				return nil
			})
			_, _ = s.StartLoop()
			_, _ = s.Enqueue("body", tr.step("body", time.Millisecond))

			Expect(s.Recording()).To(BeTrue())
			Expect(s.Looping()).To(BeFalse())
			Expect(s.Memory()).To(HaveLen(1))
			Expect(s.Queue()).To(HaveLen(2))

			close(release)
			Eventually(s.Looping).Should(BeTrue())
			Consistently(tr.get, 20*time.Millisecond).Should(BeEmpty())

			_, _ = s.EndLoop()
			Eventually(tr.get).Should(ContainElement("body"))
		})

		It("starts the first cycle only from the end marker", func() {
			startDone := make(chan struct{})
			proceed := make(chan struct{})
			var once sync.Once
			s = callstack.New(callstack.WithObserver(callstack.ObserverFunc(func(ev callstack.Event) {
				if ev.Name == "loop-start" && ev.Phase == callstack.Finished {
					once.Do(func() { close(startDone) })
					<-proceed
				}
			})))

			_, _ = s.StartLoop()
			_, _ = s.Enqueue("a", tr.step("a", 0))
			Eventually(startDone).Should(BeClosed())
			close(proceed)

			Eventually(s.Looping).Should(BeTrue())
			Consistently(tr.get, 20*time.Millisecond).Should(BeEmpty())

			_, _ = s.Enqueue("b", tr.step("b", 0))
			_, _ = s.EndLoop()

			Eventually(func() int { return len(tr.get()) }).Should(BeNumerically(">=", 6))
			s.Stop()
			got := tr.get()
			for i, name := range got {
				Expect(name).To(Equal([]string{"a", "b"}[i%2]), "execution %d of %v", i, got)
			}
		})

		It("replays the body N times per M cycles without consuming memory", func() {
			const cycles = 3
			reached := make(chan struct{})
			var mu sync.Mutex
			counts := map[string]int{}
			count := func(name string) callstack.Func {
				return func(ctx context.Context) error {
					mu.Lock()
					counts[name]++
					n := counts[name]
					mu.Unlock()
					if name == "c" && n == cycles {
						close(reached)
						<-ctx.Done()
						return ctx.Err()
					}
					return nil
				}
			}

			_, _ = s.StartLoop()
			_, _ = s.Enqueue("a", count("a"))
			_, _ = s.Enqueue("b", count("b"))
			_, _ = s.Enqueue("c", count("c"))
			before := s.Memory()
			_, _ = s.EndLoop()

			Eventually(reached).Should(BeClosed())
			Expect(s.Cycles()).To(Equal(cycles))
			Expect(s.Memory()).To(Equal(before))
			s.Stop()

			mu.Lock()
			defer mu.Unlock()
			Expect(counts).To(Equal(map[string]int{"a": cycles, "b": cycles, "c": cycles}))
		})

		It("keeps recording after the loop end marker", func() {
			_, _ = s.StartLoop()
			_, _ = s.Enqueue("body", tr.step("body", time.Millisecond))
			_, _ = s.EndLoop()
			_, _ = s.Enqueue("late", tr.step("late", 0))

			Expect(s.Recording()).To(BeTrue())
			Expect(s.Memory()).To(HaveLen(2))
		})

		It("goes idle when the loop body is empty", func() {
			_, _ = s.StartLoop()
			_, _ = s.EndLoop()
			Expect(s.Idle(context.Background())).To(Succeed())
			Expect(s.Cycles()).To(BeZero())
		})
	})

	Context("after Stop", func() {
		It("rejects new commands and abandons pending ones", func() {
			s = callstack.New()
			_, _ = s.Enqueue("long", tr.step("long", time.Hour))
			_, _ = s.Enqueue("never", tr.step("never", 0))
			s.Stop()

			_, err := s.Enqueue("x", tr.step("x", 0))
			Expect(err).To(MatchError(callstack.ErrStopped))
			_, err = s.StartLoop()
			Expect(err).To(MatchError(callstack.ErrStopped))
			Expect(tr.get()).To(BeEmpty())
			Expect(s.Idle(context.Background())).To(Succeed())
		})

		It("serializes Stop with concurrent enqueues", func() {
			for range 50 {
				s = callstack.New()
				var wg sync.WaitGroup
				for range 8 {
					wg.Add(1)
					go func() {
						defer GinkgoRecover()
						defer wg.Done()
						for range 20 {
							if _, err := s.Enqueue("x", tr.step("x", 0)); err != nil {
								Expect(err).To(MatchError(callstack.ErrStopped))
								return
							}
						}
					}()
				}
				s.Stop()
				wg.Wait()

				_, err := s.Enqueue("late", tr.step("late", 0))
				Expect(err).To(MatchError(callstack.ErrStopped))
				Expect(s.Idle(context.Background())).To(Succeed())
			}
		})
	})
})
