package tracemux

import "go.uber.org/zap"

// clockPolicy is the state machine that locks, on first observation, the set
// of clock classes a MuxerIterator's upstreams are allowed to use, and
// validates every subsequent observation against it. Transitions happen at
// most once and never regress.
type clockPolicy struct {
	assumeAbsolute bool
	expect         ClockExpectation
	logger         *zap.Logger
}

func newClockPolicy(assumeAbsolute bool, logger *zap.Logger) *clockPolicy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &clockPolicy{assumeAbsolute: assumeAbsolute, expect: ClockExpectAny, logger: logger}
}

// validateNewStream is invoked on every StreamBeginning message. A stream
// whose class has no default clock locks ClockExpectNone on first
// observation; once a regime is locked, it is accepted only under
// ClockExpectNone or when assumeAbsolute is set, and rejected otherwise.
func (p *clockPolicy) validateNewStream(stream *Stream) error {
	if stream.DefaultClockClass == nil {
		if p.expect == ClockExpectAny {
			p.expect = ClockExpectNone
			p.logger.Debug("locked clock class expectation", zap.String("expectation", p.expect.String()))
			return nil
		}

		if p.expect == ClockExpectNone {
			return nil
		}

		if p.assumeAbsolute {
			return nil
		}

		return &ClockIncompatibleError{
			Expected:      p.expect,
			ObservedName:  "<none>",
			StreamClassID: stream.ClassID,
		}
	}

	return p.validateClockClass(stream.ClassID, stream.DefaultClockClass)
}

// validateClockClass is invoked directly for a MessageIteratorInactivity
// snapshot's clock class, and indirectly by validateNewStream.
func (p *clockPolicy) validateClockClass(streamClassID string, class *ClockClass) error {
	if p.expect == ClockExpectAny {
		switch {
		case class.OriginIsUnixEpoch:
			p.expect = ClockExpectAbsolute
		case class.UUID != nil:
			p.expect = ClockExpectRelativeWithUUID(*class.UUID)
		default:
			p.expect = ClockExpectRelativeNoUUID
		}
		p.logger.Debug("locked clock class expectation",
			zap.String("expectation", p.expect.String()),
			zap.String("clock_class_name", class.Name))
	}

	if p.assumeAbsolute {
		return nil
	}

	switch p.expect.kind {
	case clockExpectAbsolute:
		if !class.OriginIsUnixEpoch {
			return p.incompatible(streamClassID, class)
		}
	case clockExpectRelativeNoUUID:
		if class.OriginIsUnixEpoch || class.UUID != nil {
			return p.incompatible(streamClassID, class)
		}
	case clockExpectRelativeWithUUID:
		if class.OriginIsUnixEpoch || class.UUID == nil || *class.UUID != p.expect.uuid {
			return p.incompatible(streamClassID, class)
		}
	case clockExpectNone:
		return p.incompatible(streamClassID, class)
	}

	return nil
}

func (p *clockPolicy) incompatible(streamClassID string, class *ClockClass) error {
	err := &ClockIncompatibleError{
		Expected:      p.expect,
		ObservedName:  class.Name,
		ObservedUUID:  class.UUID,
		ObservedEpoch: class.OriginIsUnixEpoch,
		StreamClassID: streamClassID,
	}
	p.logger.Error("clock class incompatible with locked expectation", zap.Error(err))
	return err
}

func (p *clockPolicy) reset() {
	p.expect = ClockExpectAny
}
