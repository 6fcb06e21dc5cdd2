package livereload

import (
	"bytes"
	"fmt"
)

// ClientScript reconnects to the hub and reloads the page on "reload".
var ClientScript = fmt.Sprintf(`<script>(function () {
  var proto = location.protocol === "https:" ? "wss:" : "ws:";
  function connect() {
    var ws = new WebSocket(proto + "//" + location.host + %q);
    ws.onmessage = function (ev) {
      try {
        if (JSON.parse(ev.data).type === "reload") location.reload();
      } catch (e) {}
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();
})();</script>`, Path)

var bodyClose = []byte("</body>")

// InjectScript inserts ClientScript before the last </body>, or appends it
// when the document has none.
func InjectScript(page []byte) []byte {
	i := bytes.LastIndex(bytes.ToLower(page), bodyClose)
	if i < 0 {
		return append(append([]byte(nil), page...), ClientScript...)
	}

	out := make([]byte, 0, len(page)+len(ClientScript))
	out = append(out, page[:i]...)
	out = append(out, ClientScript...)
	return append(out, page[i:]...)
}
