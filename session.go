package main

import (
	"context"
	"fmt"
	"sync"

	"copymatch/buffer"
	"copymatch/checker"
	"copymatch/config"
	"copymatch/logger"
	"copymatch/types"

	"github.com/neovim/go-client/nvim"
)

// Request handlers exposed to the editor over msgpack-rpc
const (
	methodCompare = "copymatch_compare"
	methodClear   = "copymatch_clear"
)

// session serves one editor connection
type session struct {
	ctx     context.Context
	n       *nvim.Nvim
	checker *checker.Checker
	cfg     config.NvimConfig

	// one comparison at a time per editor
	mu sync.Mutex
}

func newSession(ctx context.Context, n *nvim.Nvim, chk *checker.Checker, cfg config.NvimConfig) *session {
	return &session{ctx: ctx, n: n, checker: chk, cfg: cfg}
}

func (s *session) register() error {
	if err := s.n.RegisterHandler(methodCompare, s.compare); err != nil {
		return fmt.Errorf("register %s: %w", methodCompare, err)
	}
	if err := s.n.RegisterHandler(methodClear, s.clear); err != nil {
		return fmt.Errorf("register %s: %w", methodClear, err)
	}
	return nil
}

// compare checks buffer bufB against buffer bufA and paints the copied ranges
// into bufB.
func (s *session) compare(n *nvim.Nvim, bufA, bufB int) (*types.CompareResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	source := buffer.New(nvim.Buffer(bufA), buffer.Config{Namespace: s.cfg.Namespace})
	target := buffer.New(nvim.Buffer(bufB), buffer.Config{
		Namespace: s.cfg.Namespace,
		MaxChars:  s.cfg.MaxBufferChars,
	})
	for _, b := range []*buffer.NvimBuffer{source, target} {
		b.SetClient(n)
		if err := b.Sync(); err != nil {
			return nil, fmt.Errorf("failed to read buffer %d: %w", b.ID(), err)
		}
	}

	report, err := s.checker.Check(s.ctx, checker.Request{
		TextA:     source.Text(),
		TextB:     target.Text(),
		NameA:     source.Name(),
		NameB:     target.Name(),
		Transport: "nvim",
	})
	if err != nil {
		logger.Warn("nvim: compare %d vs %d failed: %v", bufA, bufB, err)
		return nil, err
	}

	if err := target.Paint(report.Highlights); err != nil {
		return nil, err
	}
	logger.Info("nvim: %s vs %s scored %.2f with %d highlights",
		report.SourceFileName, report.TargetFileName, report.OverallScore, len(report.Highlights))

	return &types.CompareResponse{
		OverallScore: report.OverallScore,
		Count:        len(report.Highlights),
	}, nil
}

func (s *session) clear(n *nvim.Nvim, buf int) error {
	b := buffer.New(nvim.Buffer(buf), buffer.Config{Namespace: s.cfg.Namespace})
	b.SetClient(n)
	return b.Clear()
}
