package render

const transcriptTemplate = `{{define "transcript"}}{{range .Turns}}{{template "turn" .}}{{end}}{{if .ShowQuickActions}}
<div class="quick-actions">{{range $i, $a := .QuickActions}}
  <button class="quick-action" data-index="{{$i}}" data-message="{{$a.Message}}">{{$a.Icon}} {{$a.Label}}</button>{{end}}
</div>{{end}}{{if .State.IsLoading}}{{template "loading"}}{{end}}{{end}}

{{define "turn"}}
<div class="message {{sender .}}{{if .Error}} error{{end}}">
  <div class="message-content">{{.Content}}</div>
  <div class="message-time">{{clock .CreatedAt}}</div>
</div>{{end}}

{{define "loading"}}
<div class="message bot loading">
  <div class="typing-indicator"><span></span><span></span><span></span></div>
</div>{{end}}`

const widgetTemplate = `{{define "widget"}}
<div id="chat-widget-{{.ID}}" class="chat-widget {{.Config.Theme}} {{.Config.Position}}" data-widget-id="{{.ID}}">
  <button class="chat-toggle" aria-label="Open chat">
    <svg class="chat-icon{{if .State.IsOpen}} hidden{{end}}" viewBox="0 0 24 24" fill="currentColor"><path d="M20 2H4c-1.1 0-2 .9-2 2v18l4-4h14c1.1 0 2-.9 2-2V4c0-1.1-.9-2-2-2zm0 14H6l-2 2V4h16v12z"/></svg>
    <svg class="close-icon{{if not .State.IsOpen}} hidden{{end}}" viewBox="0 0 24 24" fill="currentColor"><path d="M19 6.41L17.59 5 12 10.59 6.41 5 5 6.41 10.59 12 5 17.59 6.41 19 12 13.41 17.59 19 19 17.59 13.41 12z"/></svg>
    <span class="notification-dot{{if not .Unread}} hidden{{end}}"></span>
  </button>
  <div class="chat-window{{if not .State.IsOpen}} hidden{{end}}">
    <div class="chat-header">
      <div class="header-info">
        <div class="avatar">🤖</div>
        <div class="header-text"><h3>{{.Config.Title}}</h3><span class="status">Online</span></div>
      </div>
      <button class="minimize-btn" aria-label="Minimize chat"><svg viewBox="0 0 24 24" fill="currentColor"><path d="M19 13H5v-2h14v2z"/></svg></button>
    </div>
    <div class="chat-messages">{{template "transcript" .}}</div>
    <div class="chat-input-area">
      <form class="chat-form">
        <input type="text" class="chat-input" placeholder="{{.Config.Placeholder}}" autocomplete="off"/>
        <button type="submit" class="send-btn" disabled><svg viewBox="0 0 24 24" fill="currentColor"><path d="M2.01 21L23 12 2.01 3 2 10l15 2-15 2z"/></svg></button>
      </form>
      <div class="powered-by">Powered by AI ✨</div>
    </div>
  </div>
</div>{{end}}`

const pageTemplate = `{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{.Config.Title}}</title>
</head>
<body>
{{template "widget" .}}
<script>
(function(){
  const id={{.ID}};
  const root=document.getElementById("chat-widget-"+id);
  const msgs=root.querySelector(".chat-messages");
  const win=root.querySelector(".chat-window");
  const input=root.querySelector(".chat-input");
  const send=root.querySelector(".send-btn");
  const proto=location.protocol==="https:"?"wss://":"ws://";
  const ws=new WebSocket(proto+location.host+"/ws/widgets/"+encodeURIComponent(id));
  function post(type,data){ws.send(JSON.stringify({type:type,data:data}))}
  ws.onmessage=function(e){
    const ev=JSON.parse(e.data);
    if(ev.type==="render"){
      msgs.innerHTML=ev.html;msgs.scrollTop=msgs.scrollHeight;bindQuick();
      root.querySelector(".notification-dot").classList.toggle("hidden",!ev.unread);
    }
    if(ev.type==="panel"){
      win.classList.toggle("hidden",!ev.open);
      root.querySelector(".chat-icon").classList.toggle("hidden",ev.open);
      root.querySelector(".close-icon").classList.toggle("hidden",!ev.open);
      if(ev.open){root.querySelector(".notification-dot").classList.add("hidden");input.focus()}
    }
  };
  function bindQuick(){msgs.querySelectorAll(".quick-action").forEach(function(b){b.onclick=function(){post("quick_action",{index:Number(b.dataset.index)})}})}
  root.querySelector(".chat-toggle").onclick=function(){post("toggle")};
  root.querySelector(".minimize-btn").onclick=function(){post("toggle")};
  input.oninput=function(){send.disabled=!input.value.trim()};
  root.querySelector(".chat-form").onsubmit=function(e){
    e.preventDefault();
    const m=input.value.trim();
    if(!m)return;
    post("submit",{message:m});
    input.value="";send.disabled=true;
  };
  bindQuick();
})();
</script>
</body>
</html>{{end}}`
