package zaplog

import (
	"go.uber.org/zap/zapcore"

	"logweave/backend"
)

// bridgeCore routes entries through an external record formatter instead of a
// zap encoder, which is how structured bridge pipelines format records that
// originate from this backend.
type bridgeCore struct {
	min    zapcore.Level
	rf     backend.RecordFormatter
	ws     zapcore.WriteSyncer
	fields []zapcore.Field
}

func (c *bridgeCore) Enabled(l zapcore.Level) bool {
	return l >= c.min
}

func (c *bridgeCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &bridgeCore{min: c.min, rf: c.rf, ws: c.ws}
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return clone
}

func (c *bridgeCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(ent.Level) {
		return ce
	}
	return ce.AddCore(ent, c)
}

func (c *bridgeCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	var recFields map[string]any
	if len(enc.Fields) > 0 {
		recFields = enc.Fields
	}

	line, err := c.rf.FormatRecord(backend.Record{
		Time:    ent.Time,
		Level:   fromZapLevel(ent.Level),
		Logger:  ent.LoggerName,
		Message: ent.Message,
		Fields:  recFields,
	})
	if err != nil {
		return err
	}
	if _, err := c.ws.Write(line); err != nil {
		return err
	}
	if len(line) == 0 || line[len(line)-1] != '\n' {
		if _, err := c.ws.Write([]byte{'\n'}); err != nil {
			return err
		}
	}
	return nil
}

func (c *bridgeCore) Sync() error {
	return c.ws.Sync()
}
