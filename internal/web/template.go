package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/midi-bridge/internal/logic"
	"github.com/sweeney/midi-bridge/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"modeOrUnknown": func(m logic.Mode) string {
		if m == "" {
			return "UNKNOWN"
		}
		return string(m)
	},
	"onOff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>MIDI Bridge</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>MIDI Bridge</h1>

<h2>State</h2>
<table>
<tr><th>Mode</th><td id="mode">{{modeOrUnknown .Mode}}</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Channels</h2>
<table>
<tr><th>#</th><th>Input</th><th>Output</th><th>Note</th><th>Program</th></tr>
{{range .Channels}}<tr><td>{{.Index}}</td><td class="{{if .Input}}on{{else}}off{{end}}">{{onOff .Input}} (pin {{.InputPin}})</td><td class="{{if .Output}}on{{else}}off{{end}}">{{onOff .Output}} (pin {{.OutputPin}})</td><td>{{.Note}}</td><td>{{.Program}}</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Transports</th><td>{{range $i, $t := .Config.Transports}}{{if $i}}, {{end}}{{$t}}{{else}}none{{end}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Activated</th><td>{{.Counts.Activated}}</td></tr>
<tr><th>Deactivated</th><td>{{.Counts.Deactivated}}</td></tr>
<tr><th>MIDI out</th><td>{{.Counts.Sent}}</td></tr>
<tr><th>MIDI in</th><td>{{.Counts.Received}}</td></tr>
<tr><th>MIDI ignored</th><td>{{.Counts.Ignored}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>MIDI channel</th><td>{{.Config.MIDIChannel}}{{if .Config.StrictChannel}} (strict){{end}}</td></tr>
<tr><th>Velocity</th><td>{{.Config.OnVelocity}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

type channelRow struct {
	Index     int
	InputPin  int
	OutputPin int
	Note      uint8
	Program   uint8
	Input     bool
	Output    bool
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	rows := make([]channelRow, len(snap.Config.Channels))
	for i, ch := range snap.Config.Channels {
		rows[i] = channelRow{
			Index:     i,
			InputPin:  ch.InputPin,
			OutputPin: ch.OutputPin,
			Note:      ch.Note,
			Program:   ch.Program,
			Input:     snap.Inputs[i],
			Output:    snap.Outputs[i],
		}
	}

	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime   time.Duration
		Channels []channelRow
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Channels: rows,
	}
	indexTmpl.Execute(w, data)
}
