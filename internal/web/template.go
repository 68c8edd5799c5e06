package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/aux-lights/internal/logic"
	"github.com/sweeney/aux-lights/internal/mqtt"
	"github.com/sweeney/aux-lights/internal/status"
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
	"dark":          logic.IsDark,
	"dimmerSeconds": logic.DimmerSeconds,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Aux Lights</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.warn { color: orange; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Aux Lights{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Lights</h2>
<table>
<tr><th>Mirror</th><td id="mirror" class="{{if .State.MirrorOn}}on{{else}}off{{end}}">{{onOff .State.MirrorOn}}</td></tr>
<tr><th>Edge</th><td id="edge" class="{{if .State.EdgeOn}}on{{else}}off{{end}}">{{onOff .State.EdgeOn}}</td></tr>
<tr><th>Red</th><td id="red" class="{{if .State.RedOn}}on{{else}}off{{end}}">{{onOff .State.RedOn}}</td></tr>
<tr><th>RGB</th><td id="rgb" class="{{if .State.RGBOn}}on{{else}}off{{end}}">{{onOff .State.RGBOn}}</td></tr>
<tr><th>Interior mode</th><td id="interior">{{.State.Interior}}</td></tr>
<tr><th>Exterior mode</th><td id="exterior">{{.State.Exterior}}</td></tr>
<tr><th>Reading light lockout</th><td id="terminator" class="{{if .State.Terminator}}warn{{else}}off{{end}}">{{if .State.Terminator}}active{{else}}no{{end}}</td></tr>
</table>

<h2>Inputs</h2>
{{if .Sampled}}<table>
<tr><th>Door</th><td>{{if .Inputs.DoorClosed}}closed{{else}}open{{end}}</td></tr>
<tr><th>Ignition</th><td>{{onOff .Inputs.Ignition}}</td></tr>
<tr><th>Reading light</th><td>{{onOff .Inputs.ReadingLight}}</td></tr>
<tr><th>Photo L / R</th><td>{{.Inputs.Analog.PhotoLeft}} / {{.Inputs.Analog.PhotoRight}}</td></tr>
<tr><th>Sensitivity L / R</th><td>{{.Inputs.Analog.SensLeft}} / {{.Inputs.Analog.SensRight}}</td></tr>
<tr><th>Dark</th><td>{{if dark .Inputs.Analog}}yes{{else}}no{{end}}</td></tr>
<tr><th>Dimmer</th><td>{{.Inputs.Analog.DimmerTime}} ({{dimmerSeconds .Inputs.Analog}}s)</td></tr>
</table>{{else}}<p>not sampled yet</p>{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Redis</th><td class="{{if .RedisConnected}}connected{{else}}disconnected{{end}}">{{if .RedisConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Redis address</th><td>{{.Config.Redis}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Mirror ON</th><td>{{.Counts.MirrorOn}}</td></tr>
<tr><th>Edge ON</th><td>{{.Counts.EdgeOn}}</td></tr>
<tr><th>Red ON</th><td>{{.Counts.RedOn}}</td></tr>
<tr><th>RGB ON</th><td>{{.Counts.RGBOn}}</td></tr>
<tr><th>Lockouts</th><td>{{.Counts.Terminator}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Iterations</th><td>{{.Iterations}}</td></tr>
<tr><th>Output failures</th><td>{{.OutputFailures}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Tick</th><td>{{.Config.TickUs}}us</td></tr>
<tr><th>Ramp step</th><td>{{.Config.RampStepMs}}ms</td></tr>
<tr><th>Mirror hold</th><td>{{.Config.MirrorHoldMs}}ms</td></tr>
<tr><th>Dark only</th><td>{{if .Config.DarkOnly}}yes{{else}}no{{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/lights.json">lights</a> | <a href="/inputs.json">inputs</a></p>
{{if .Config.WSBroker}}
<script src="/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "{{.Topic}}";
  var dot = document.getElementById("live-dot");

  function setLight(id, state) {
    var el = document.getElementById(id);
    el.textContent = state;
    el.className = state === "ON" ? "on" : "off";
  }

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });
  client.on("connect", function() { setDot("ok", "live"); client.subscribe(topic); });
  client.on("reconnect", function() { setDot("pending", "reconnecting"); });
  client.on("offline", function() { setDot("err", "offline"); });
  client.on("error", function() { setDot("err", "error"); });

  client.on("message", function(t, payload) {
    try {
      var ev = JSON.parse(payload.toString()).aux_lights;
      if (!ev) return;
      ["mirror", "edge", "red", "rgb"].forEach(function(id) { setLight(id, ev.outputs[id]); });
      if (ev.event === "INTERIOR_MODE") document.getElementById("interior").textContent = ev.mode;
      if (ev.event === "EXTERIOR_MODE") document.getElementById("exterior").textContent = ev.mode;
      if (ev.event === "TERMINATOR_SET" || ev.event === "TERMINATOR_CLEARED") {
        var term = document.getElementById("terminator");
        var set = ev.event === "TERMINATOR_SET";
        term.textContent = set ? "active" : "no";
        term.className = set ? "warn" : "off";
      }
    } catch (e) {}
  });
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Topic  string
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Topic:    mqtt.Topic,
	}
	indexTmpl.Execute(w, data)
}
