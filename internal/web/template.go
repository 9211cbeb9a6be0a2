package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/greenhouse-controller/internal/status"
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
	"onOff": func(on bool) string {
		if on {
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
<meta http-equiv="refresh" content="10">
<title>Greenhouse Controller</title>
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
<h1>Greenhouse Controller</h1>

{{if .Ready}}
<h2>Sensors</h2>
<table>
<tr><th>Temperature</th><td>{{printf "%.1f" .Sensors.Temperature}} &deg;C</td></tr>
<tr><th>Humidity</th><td>{{printf "%.1f" .Sensors.Humidity}} %</td></tr>
<tr><th>Soil Moisture</th><td>{{.Sensors.SoilMoisture}} %</td></tr>
<tr><th>Acidity</th><td>pH {{printf "%.2f" .Sensors.Acidity}}</td></tr>
<tr><th>Light</th><td>{{.Sensors.LightLevel}}</td></tr>
<tr><th>Rain</th><td>{{.Sensors.RainLevel}}{{if .Sensors.IsRaining}} (raining){{end}}</td></tr>
<tr><th>Read At</th><td>{{.Sensors.Time.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
</table>
{{else}}
<p>Waiting for first valid sensor snapshot ({{.InvalidCycles}} invalid so far).</p>
{{end}}

<h2>Actuators</h2>
<table>
<tr><th>Pump</th><td class="{{if .Actuators.Pump}}on{{else}}off{{end}}">{{onOff .Actuators.Pump}}</td></tr>
<tr><th>Fertiliser</th><td class="{{if .Actuators.Fertiliser}}on{{else}}off{{end}}">{{onOff .Actuators.Fertiliser}}</td></tr>
<tr><th>Light</th><td class="{{if .Actuators.Light}}on{{else}}off{{end}}">{{onOff .Actuators.Light}}</td></tr>
<tr><th>Fan</th><td class="{{if .Actuators.Fan}}on{{else}}off{{end}}">{{onOff .Actuators.Fan}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}} &mdash; {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Transition Counts</h2>
<table>
<tr><th>Pump ON / OFF</th><td>{{.Counts.PumpOn}} / {{.Counts.PumpOff}}</td></tr>
<tr><th>Fertiliser ON / OFF</th><td>{{.Counts.FertiliserOn}} / {{.Counts.FertiliserOff}}</td></tr>
<tr><th>Light ON / OFF</th><td>{{.Counts.LightOn}} / {{.Counts.LightOff}}</td></tr>
<tr><th>Fan ON / OFF</th><td>{{.Counts.FanOn}} / {{.Counts.FanOff}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Invalid Cycles</th><td>{{.InvalidCycles}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Telemetry</th><td>{{.Config.PublishMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> &middot; <a href="/metrics">Metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
