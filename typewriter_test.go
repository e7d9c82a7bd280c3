package typewriter_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/typewriter"
)

const fast = time.Millisecond

func letters(chars ...string) string {
	out := ""
	for _, c := range chars {
		out += `<span class="letter">` + c + `</span>`
	}
	return out
}

const caret = `<span class="caret">|</span>`

var _ = Describe("Typewriter", func() {
	var (
		host *typewriter.MemorySurface
		tw   *typewriter.Typewriter
	)

	newTypewriter := func(initial string, opts ...typewriter.Option) {
		host = typewriter.NewMemorySurface(initial)
		var err error
		tw, err = typewriter.New(host, append([]typewriter.Option{typewriter.WithSpeed(fast)}, opts...)...)
		Expect(err).NotTo(HaveOccurred())
	}

	idle := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(tw.Idle(ctx)).To(Succeed())
	}

	AfterEach(func() {
		if tw != nil {
			tw.Stop()
		}
	})

	Describe("construction", func() {
		It("captures host content without drawing it", func() {
			newTypewriter("hi")
			Expect(host.Frames()).To(BeEmpty())
			Expect(tw.Text()).To(BeEmpty())

			tw.Init()
			Expect(tw.Text()).To(Equal([]string{"h", "i"}))
			Expect(host.Frames()).To(Equal([]string{letters("h", "i") + caret}))
		})

		It("rejects a nil surface and a negative speed", func() {
			_, err := typewriter.New(nil, typewriter.WithSpeed(-time.Second))
			Expect(err).To(MatchError(typewriter.ErrInvalidArgument))
			Expect(err.Error()).To(ContainSubstring("nil surface"))
			Expect(err.Error()).To(ContainSubstring("negative speed"))
		})

		It("only initializes once", func() {
			newTypewriter("a")
			tw.Init().Init()
			Expect(tw.Text()).To(Equal([]string{"a"}))
		})
	})

	Describe("write and delete", func() {
		It("syncs after every character", func() {
			newTypewriter("")
			tw.Init().Write("ab")
			idle()

			Expect(tw.Text()).To(Equal([]string{"a", "b"}))
			Expect(host.Frames()).To(Equal([]string{
				caret,
				letters("a") + caret,
				letters("a", "b") + caret,
			}))

			tw.Delete(1)
			idle()
			Expect(tw.Text()).To(Equal([]string{"a"}))
			Expect(host.Content()).To(Equal(letters("a") + caret))
		})

		DescribeTable("write then delete restores the previous buffer",
			func(initial, s string) {
				newTypewriter(initial)
				before := tw.Init().Text()
				tw.Write(s).Delete(len([]rune(s)))
				idle()
				Expect(tw.Text()).To(Equal(before))
			},
			Entry("single character", "", "x"),
			Entry("word on existing text", "hey ", "there"),
			Entry("multibyte", "", "héllo wörld"),
			Entry("whitespace", "a", " \t "),
		)

		DescribeTable("delete all empties the buffer",
			func(initial string) {
				newTypewriter(initial)
				tw.Init().DeleteAll()
				idle()
				Expect(tw.Text()).To(BeEmpty())
			},
			Entry("empty", ""),
			Entry("one", "x"),
			Entry("several", "typewriter"),
		)

		It("counts delete all when it runs, not when it is queued", func() {
			newTypewriter("ab")
			tw.Init().Write("cd").DeleteAll()
			idle()
			Expect(tw.Text()).To(BeEmpty())
		})

		It("treats deleting past the start as a no-op", func() {
			newTypewriter("a")
			tw.Init().Delete(5)
			idle()
			Expect(tw.Text()).To(BeEmpty())
			Expect(tw.Err()).NotTo(HaveOccurred())
		})
	})

	Describe("put", func() {
		It("splits text and round-trips with delete", func() {
			newTypewriter("x")
			tw.Init().Put("<b>", typewriter.ModeText)
			idle()
			Expect(tw.Text()).To(Equal([]string{"x", "<", "b", ">"}))
			Expect(host.Content()).To(Equal(letters("x", "&lt;", "b", "&gt;") + caret))

			tw.Delete(3)
			idle()
			Expect(tw.Text()).To(Equal([]string{"x"}))
		})

		It("inserts html as one verbatim token", func() {
			newTypewriter("")
			tw.Init().Put("<em>hi</em>", typewriter.ModeHTML)
			idle()
			Expect(tw.Text()).To(Equal([]string{"<em>hi</em>"}))
			Expect(host.Content()).To(Equal("<em>hi</em>" + caret))

			tw.Delete(1)
			idle()
			Expect(tw.Text()).To(BeEmpty())
		})

		It("rejects a missing mode and stops the chain", func() {
			newTypewriter("")
			tw.Init().Put("x", "").Write("never")
			Expect(tw.Err()).To(MatchError(typewriter.ErrInvalidArgument))
			idle()
			Expect(tw.Text()).To(BeEmpty())
		})
	})

	Describe("speed and waiting", func() {
		It("applies a speed change in order", func() {
			newTypewriter("")
			tw.Init().Write("a").SetSpeed(2 * time.Millisecond)
			idle()
			Expect(tw.Speed()).To(Equal(2 * time.Millisecond))
		})

		It("waits at least the requested duration", func() {
			newTypewriter("")
			start := time.Now()
			tw.Init().Wait(30 * time.Millisecond)
			idle()
			Expect(time.Since(start)).To(BeNumerically(">=", 30*time.Millisecond))
			Expect(host.Frames()).To(HaveLen(1))
		})

		It("rejects negative durations", func() {
			newTypewriter("")
			tw.Init().Wait(-time.Second)
			Expect(tw.Err()).To(MatchError(typewriter.ErrInvalidArgument))

			newTypewriter("")
			tw.Init().SetSpeed(-time.Second)
			Expect(tw.Err()).To(MatchError(typewriter.ErrInvalidArgument))
		})
	})

	Describe("end", func() {
		It("draws the final frame without the caret", func() {
			newTypewriter("")
			tw.Init().Write("ok")
			Expect(tw.End()).To(Succeed())
			idle()
			Expect(host.Content()).To(Equal(letters("o", "k")))
		})
	})

	Describe("misuse", func() {
		It("fails fast before Init", func() {
			newTypewriter("")
			tw.Write("a").Wait(time.Second)
			Expect(tw.Err()).To(MatchError(typewriter.ErrUninitialized))
			Expect(tw.End()).To(MatchError(typewriter.ErrUninitialized))
			Expect(host.Frames()).To(BeEmpty())
		})

		It("rejects commands after Stop", func() {
			newTypewriter("", typewriter.WithSpeed(time.Hour))
			tw.Init().Write("slow")
			tw.Stop()
			tw.Write("x")
			Expect(tw.Err()).To(MatchError(typewriter.ErrStopped))
			Expect(tw.Text()).To(BeEmpty())
		})
	})

	Describe("loop region", func() {
		It("replays from memory rather than accumulating commands", func() {
			var mu sync.Mutex
			var snapshots [][]string
			reached := make(chan struct{})
			newTypewriter("", typewriter.WithObserver(typewriter.ObserverFunc(func(ev typewriter.Event) {
				if ev.Phase != typewriter.Finished || ev.Name != "write" {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				snapshots = append(snapshots, tw.Text())
				if len(snapshots) == 2 {
					close(reached)
				}
			})))

			tw.Init().DefineLoopStart().DeleteAll().Write("x")
			Expect(tw.DefineLoopEnd()).To(Succeed())

			Eventually(reached, 5*time.Second).Should(BeClosed())
			tw.Stop()

			mu.Lock()
			defer mu.Unlock()
			Expect(snapshots[0]).To(Equal([]string{"x"}))
			Expect(snapshots[1]).To(Equal([]string{"x"}))
			Expect(tw.Cycles()).To(BeNumerically(">=", 2))
		})

		It("appends one character per cycle for a write-only body", func() {
			newTypewriter("")
			tw.Init().DefineLoopStart().Write("x")
			Expect(tw.DefineLoopEnd()).To(Succeed())

			Eventually(tw.Cycles, 5*time.Second).Should(BeNumerically(">=", 3))
			tw.Stop()
			Expect(len(tw.Text())).To(BeNumerically(">=", 2))
			for _, c := range tw.Text() {
				Expect(c).To(Equal("x"))
			}
		})
	})

	Describe("cadence", func() {
		It("is reproducible for a seed and stays within bounds", func() {
			a := typewriter.SampleDelays(200*time.Millisecond, 7, 50)
			b := typewriter.SampleDelays(200*time.Millisecond, 7, 50)
			Expect(a).To(Equal(b))
			for _, d := range a {
				Expect(d).To(BeNumerically(">=", 50*time.Millisecond))
				Expect(d).To(BeNumerically("<", 350*time.Millisecond))
				Expect(d % time.Millisecond).To(BeZero())
			}
		})
	})
})
