package terrain

import "log/slog"

// progress logs a pass in 10% steps, always ending with 100%.
type progress struct {
	logger   *slog.Logger
	msg      string
	total    int
	done     int
	next     int
	complete bool
}

func newProgress(logger *slog.Logger, msg string, total int) *progress {
	p := &progress{logger: logger, msg: msg, total: total, next: 10}
	if total <= 0 {
		p.log(100)
		p.complete = true
		return p
	}
	p.log(0)
	return p
}

func (p *progress) step(n int) {
	if p.complete {
		return
	}
	p.done += n
	percent := p.done * 100 / p.total
	if percent < p.next {
		return
	}
	if percent >= 100 {
		p.log(100)
		p.complete = true
		return
	}
	p.log(percent)
	p.next = (percent/10 + 1) * 10
}

func (p *progress) finish() {
	if !p.complete {
		p.log(100)
		p.complete = true
	}
}

func (p *progress) log(percent int) {
	p.logger.Info(p.msg, "percent", percent)
}
