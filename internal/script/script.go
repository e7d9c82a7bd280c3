// Package script reads typing scripts: YAML documents that describe a
// typewriter command chain.
//
//	initial: "$ "
//	speed_ms: 120
//	steps:
//	  - write: "make tset"
//	  - delete: 3
//	  - write: "est"
//	  - wait_ms: 800
//	  - put: {content: "<br>", mode: html}
//	  - loop: start
//	  - write: "..."
//	  - delete: all
//	  - loop: end
//
// Every step carries exactly one action. "loop: end" and "end: true" close
// the chain and must be the last step.
package script

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/typewriter"
)

type Script struct {
	Initial string  `yaml:"initial"`
	SpeedMS *int    `yaml:"speed_ms"`
	Caret   *string `yaml:"caret"`
	Steps   []Step  `yaml:"steps"`
}

type Step struct {
	Write   *string `yaml:"write,omitempty"`
	Delete  *Count  `yaml:"delete,omitempty"`
	Put     *Put    `yaml:"put,omitempty"`
	WaitMS  *int    `yaml:"wait_ms,omitempty"`
	SpeedMS *int    `yaml:"speed_ms,omitempty"`
	Loop    string  `yaml:"loop,omitempty"`
	End     bool    `yaml:"end,omitempty"`
}

type Put struct {
	Content string `yaml:"content"`
	Mode    string `yaml:"mode"`
}

// Count is a delete target: a number of tokens or "all".
type Count struct {
	N   int
	All bool
}

func (c *Count) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: delete wants a count or \"all\"", value.Line)
	}
	if value.Value == "all" || value.Value == "true" {
		c.All = true
		return nil
	}
	n, err := strconv.Atoi(value.Value)
	if err != nil || n < 0 {
		return fmt.Errorf("line %d: delete wants a count or \"all\", got %q", value.Line, value.Value)
	}
	c.N = n
	return nil
}

func (c Count) MarshalYAML() (any, error) {
	if c.All {
		return "all", nil
	}
	return c.N, nil
}

func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	return s, nil
}

func (s *Script) Validate() error {
	var err error
	if s.SpeedMS != nil && *s.SpeedMS < 0 {
		err = errors.Join(err, fmt.Errorf("speed_ms must not be negative"))
	}
	inLoop, closed := false, false
	for i, st := range s.Steps {
		if closed {
			err = errors.Join(err, fmt.Errorf("step %d: follows a terminal step", i))
			break
		}
		if n := st.actions(); n != 1 {
			err = errors.Join(err, fmt.Errorf("step %d: want exactly one action, got %d", i, n))
			continue
		}
		switch {
		case st.Put != nil:
			if _, perr := typewriter.ParseMode(st.Put.Mode); perr != nil {
				err = errors.Join(err, fmt.Errorf("step %d: %w", i, perr))
			}
		case st.WaitMS != nil && *st.WaitMS < 0:
			err = errors.Join(err, fmt.Errorf("step %d: wait_ms must not be negative", i))
		case st.SpeedMS != nil && *st.SpeedMS < 0:
			err = errors.Join(err, fmt.Errorf("step %d: speed_ms must not be negative", i))
		case st.Loop == "start":
			if inLoop {
				err = errors.Join(err, fmt.Errorf("step %d: loop already started", i))
			}
			inLoop = true
		case st.Loop == "end":
			if !inLoop {
				err = errors.Join(err, fmt.Errorf("step %d: loop end without start", i))
			}
			closed = true
		case st.Loop != "":
			err = errors.Join(err, fmt.Errorf("step %d: unknown loop marker %q", i, st.Loop))
		case st.End:
			closed = true
		}
	}
	return err
}

func (st Step) actions() int {
	n := 0
	for _, set := range []bool{
		st.Write != nil, st.Delete != nil, st.Put != nil, st.WaitMS != nil,
		st.SpeedMS != nil, st.Loop != "", st.End,
	} {
		if set {
			n++
		}
	}
	return n
}

// Loops reports whether the script contains a loop region.
func (s *Script) Loops() bool {
	for _, st := range s.Steps {
		if st.Loop == "start" {
			return true
		}
	}
	return false
}

// Apply chains every step onto tw, which must already be initialized.
func (s *Script) Apply(tw *typewriter.Typewriter) error {
	for _, st := range s.Steps {
		switch {
		case st.Write != nil:
			tw.Write(*st.Write)
		case st.Delete != nil && st.Delete.All:
			tw.DeleteAll()
		case st.Delete != nil:
			tw.Delete(st.Delete.N)
		case st.Put != nil:
			tw.Put(st.Put.Content, typewriter.Mode(st.Put.Mode))
		case st.WaitMS != nil:
			tw.Wait(ms(*st.WaitMS))
		case st.SpeedMS != nil:
			tw.SetSpeed(ms(*st.SpeedMS))
		case st.Loop == "start":
			tw.DefineLoopStart()
		case st.Loop == "end":
			return tw.DefineLoopEnd()
		case st.End:
			return tw.End()
		}
	}
	return tw.Err()
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
