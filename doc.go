// Package typewriter animates text on a display surface as if it were being
// typed: characters appear and disappear at randomized intervals, with
// support for pauses, speed changes, raw markup, and an endlessly repeating
// loop region.
//
// Commands are chained on a [Typewriter] and executed strictly one after the
// other on a single timeline:
//
//	host := typewriter.NewMemorySurface("")
//	tw, _ := typewriter.New(host, typewriter.WithSpeed(120*time.Millisecond))
//	tw.Init().
//		Write("Hello, wrld").
//		Delete(4).
//		Write("world!").
//		Wait(time.Second).
//		DefineLoopStart().
//		Write(" again").
//		DeleteAll()
//	err := tw.DefineLoopEnd()
//
// Every mutation is rendered to the surface immediately, followed by a caret.
// [Typewriter.End] renders once more without the caret and ends the chain.
//
// # Surfaces and renderers
//
// A [Surface] is anything whose displayed content can be read once and
// replaced. A [Renderer] turns the token buffer into that content; HTML,
// styled terminal, and plain renderers are provided.
//
// # Trusted markup
//
// [ModeHTML] content is inserted verbatim, never escaped. It is the trusted
// input path and must be sanitized by the caller. Text written with
// [Typewriter.Write] or [ModeText] is escaped by the HTML renderer.
//
// # Errors
//
// Builder calls never return errors directly. The first failure is kept and
// later calls become no-ops; read it with [Typewriter.Err] or from the
// terminal calls. Failures inside running commands are reported through
// [WithErrorHandler] and the logger.
package typewriter
