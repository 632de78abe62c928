package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Duration 配置文件中的时长
//
// 接受 "250ms" 这样的字符串，也接受纳秒整数；输出总是字符串。
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(data, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var ns int64
	if err := json.Unmarshal(data, &ns); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\" or integer nanoseconds, got %s", data)
	}
	*d = Duration(ns)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Duration 转为 time.Duration
func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return d.Duration().String() }
