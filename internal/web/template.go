package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/nexus-receiver/internal/config"
	"github.com/sweeney/nexus-receiver/internal/status"
)

func formatUptime(d time.Duration) string {
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
}

var funcs = template.FuncMap{
	"uptime": formatUptime,
	"ago": func(now, then time.Time) string {
		return formatUptime(now.Sub(then)) + " ago"
	},
	"channel": func(c uint8) uint8 { return c + 1 },
	"ms": func(ms int64) string {
		if ms == 0 {
			return "disabled"
		}
		return (time.Duration(ms) * time.Millisecond).String()
	},
}

var indexTmpl = template.Must(template.New("index").Funcs(funcs).Parse(indexHTML))

var configTmpl = template.Must(template.New("config").Funcs(funcs).Parse(configHTML))

const style = `<style>
body { font-family: monospace; max-width: 720px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.readings th { width: auto; }
.temp { font-size: 1.3em; font-weight: bold; }
.low { color: red; }
.stale { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.saved { color: green; }
input[type=text] { width: 100%; font-family: monospace; }
</style>`

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="30">
<title>Nexus Receiver</title>
` + style + `
</head>
<body>
<h1>Nexus Receiver</h1>

<h2>Sensors</h2>
{{if .Sensors}}
<table class="readings">
<tr><th>ID</th><th>Ch</th><th>Temperature</th><th>Humidity</th><th>Battery</th><th>Last seen</th></tr>
{{range .Sensors}}<tr{{if .Stale}} class="stale"{{end}}>
<td>0x{{printf "%02x" .Key.ID}}</td>
<td>{{channel .Key.Channel}}</td>
<td class="temp">{{printf "%.1f" .Last.Celsius}}&deg;C</td>
<td>{{.Last.Humidity}}%</td>
<td{{if not .Last.BatteryOK}} class="low"{{end}}>{{if .Last.BatteryOK}}ok{{else}}low{{end}}</td>
<td>{{ago $.Now .LastSeen}}{{if .Stale}} (stale){{end}}</td>
</tr>
{{end}}</table>
{{else}}
<p>No sensors heard yet.</p>
{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Topic</th><td>{{.Config.Topic}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Decoder</h2>
<table>
<tr><th>Edges</th><td>{{.Decoder.Edges}}</td></tr>
<tr><th>Frames</th><td>{{.Decoder.Frames}}</td></tr>
<tr><th>Accepted</th><td>{{.Decoder.Accepted}}</td></tr>
<tr><th>Frame mismatches</th><td>{{.Decoder.Mismatches}}</td></tr>
<tr><th>Const mismatches</th><td>{{.Decoder.ConstMismatches}}</td></tr>
<tr><th>Overruns</th><td>{{.Decoder.Overruns}}</td></tr>
<tr><th>Noise</th><td>{{.Decoder.Noise}}</td></tr>
</table>

<h2>Events</h2>
<table>
<tr><th>Readings</th><td>{{.Counts.Readings}}</td></tr>
<tr><th>Duplicates</th><td>{{.Counts.Duplicates}}</td></tr>
<tr><th>Invalid channel</th><td>{{.Counts.Invalid}}</td></tr>
<tr><th>Stale</th><td>{{.Counts.Stale}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Input</th><td>{{if .Config.Simulate}}simulated{{else}}{{.Config.Chip}} line {{.Config.Pin}}{{end}}</td></tr>
<tr><th>Poll</th><td>{{ms .Config.PollMs}}</td></tr>
<tr><th>Heartbeat</th><td>{{ms .Config.HeartbeatMs}}</td></tr>
<tr><th>Stale after</th><td>{{ms .Config.StaleAfterMs}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/config">Configure</a></p>
</body>
</html>
`

const configHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Nexus Receiver Setup</title>
` + style + `
</head>
<body>
<h1>Nexus Receiver Setup</h1>
{{if .Saved}}<p class="saved">Saved. Restart the receiver to apply.</p>{{end}}
<form method="post" action="/config">
<input type="hidden" name="simulate_present" value="1">
<table>
<tr><th>GPIO chip</th><td><input type="text" name="gpio_chip" value="{{.Config.GPIO.Chip}}"></td></tr>
<tr><th>GPIO line</th><td><input type="text" name="gpio_pin" value="{{.Config.GPIO.Pin}}"></td></tr>
<tr><th>MQTT broker</th><td><input type="text" name="mqtt_broker" value="{{.Config.MQTT.Broker}}"></td></tr>
<tr><th>MQTT client id</th><td><input type="text" name="mqtt_client_id" value="{{.Config.MQTT.ClientID}}"></td></tr>
<tr><th>MQTT topic</th><td><input type="text" name="mqtt_topic" value="{{.Config.MQTT.Topic}}"></td></tr>
<tr><th>HTTP address</th><td><input type="text" name="http_addr" value="{{.Config.HTTP.Addr}}"></td></tr>
<tr><th>Poll</th><td><input type="text" name="poll" value="{{.Config.Poll.Std}}"></td></tr>
<tr><th>Heartbeat</th><td><input type="text" name="heartbeat" value="{{.Config.Heartbeat.Std}}"></td></tr>
<tr><th>Stale after</th><td><input type="text" name="stale_after" value="{{.Config.StaleAfter.Std}}"></td></tr>
<tr><th>Dedup window</th><td><input type="text" name="dedup" value="{{.Config.Dedup.Std}}"></td></tr>
<tr><th>Log level</th><td><input type="text" name="log_level" value="{{.Config.Log.Level}}"></td></tr>
<tr><th>Log format</th><td><input type="text" name="log_format" value="{{.Config.Log.Format}}"></td></tr>
<tr><th>Simulate sensors</th><td><input type="checkbox" name="simulate"{{if .Config.Simulate.Enabled}} checked{{end}}></td></tr>
</table>
<p><button type="submit">Save</button></p>
</form>
<form method="post" action="/config/reset">
<p><button type="submit">Restore defaults</button></p>
</form>
<p>Stored in {{.Path}}. <a href="/">Status</a></p>
</body>
</html>
`

// indexPage adds the derived fields the template cannot compute.
type indexPage struct {
	status.Snapshot
	Uptime time.Duration
}

func renderIndex(w io.Writer, snap status.Snapshot) error {
	return indexTmpl.Execute(w, indexPage{Snapshot: snap, Uptime: snap.Uptime()})
}

type configPage struct {
	Config config.Config
	Path   string
	Saved  bool
}

func renderConfig(w io.Writer, page configPage) error {
	return configTmpl.Execute(w, page)
}
