package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/ir-remote/internal/action"
	"github.com/sweeney/ir-remote/internal/status"
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
	"actionOrNone": func(a action.Action) string {
		if a == action.ActionNone {
			return "NONE"
		}
		return string(a)
	},
	"ms": func(us int64) string {
		return fmt.Sprintf("%gms", float64(us)/1000)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>IR Remote</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.action { color: green; font-weight: bold; }
.none { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>IR Remote{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Last Action</h2>
<table>
<tr><th>Action</th><td id="last-action" class="{{if .LastAction}}action{{else}}none{{end}}">{{actionOrNone .LastAction}}</td></tr>
<tr><th>Command</th><td id="last-command">{{if .LastCommand}}{{.LastCommand}}{{else}}-{{end}}</td></tr>
<tr><th>At</th><td id="last-at">{{if not .LastActionAt.IsZero}}{{.LastActionAt.UTC.Format "2006-01-02T15:04:05Z"}}{{else}}-{{end}}</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Action Counts</h2>
<table>
<tr><th>UP</th><td id="count-UP">{{.Counts.Up}}</td></tr>
<tr><th>LEFT</th><td id="count-LEFT">{{.Counts.Left}}</td></tr>
<tr><th>RIGHT</th><td id="count-RIGHT">{{.Counts.Right}}</td></tr>
<tr><th>DOWN</th><td id="count-DOWN">{{.Counts.Down}}</td></tr>
<tr><th>Unmatched</th><td>{{.Counts.Unmatched}}</td></tr>
<tr><th>Output errors</th><td>{{.OutputErrors}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{ms .Config.TickUs}}</td></tr>
<tr><th>Bit threshold</th><td>{{ms .Config.BitUs}}</td></tr>
<tr><th>Frame start</th><td>{{ms .Config.FrameStartUs}}</td></tr>
<tr><th>IR pin</th><td>{{.Config.PinIR}}</td></tr>
<tr><th>LED pins</th><td>{{range $i, $p := .Config.PinsLED}}{{if $i}}, {{end}}{{$p}}{{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
{{if .Config.WSBroker}}
<script src="https://unpkg.com/mqtt@5/dist/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "home/ir-remote/actions";
  var dot = document.getElementById("live-dot");
  var actionEl = document.getElementById("last-action");
  var commandEl = document.getElementById("last-command");
  var atEl = document.getElementById("last-at");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe(topic);
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function(t, payload) {
    try {
      var msg = JSON.parse(payload.toString());
      if (msg.remote) {
        actionEl.textContent = msg.remote.action;
        actionEl.className = "action";
        commandEl.textContent = msg.remote.command;
        atEl.textContent = msg.remote.timestamp;
        var countEl = document.getElementById("count-" + msg.remote.action);
        if (countEl) {
          countEl.textContent = String(Number(countEl.textContent) + 1);
        }
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
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
