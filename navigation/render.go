// navigation/render.go
package navigation

import (
	"fmt"
	"html/template"
	"io"
)

const tmplTree = `
{{define "tree"}}<ul class="years">
{{- range .Years}}
<li class="year{{if .Collapsed}} close{{end}}" data-group="{{.Key}}">
<div class="group-header" data-group="{{.Key}}"><label>{{.Key}}</label><img class="arrow" src="assets/Icons_arrow.svg"></div>
<ul class="months">
{{- range .Months}}
<li class="month{{if .Collapsed}} close{{end}}" data-group="{{.Key}}">
<div class="group-header" data-group="{{.Key}}"><label>{{.Label}}</label><img class="arrow" src="assets/Icons_arrow.svg"></div>
<ul class="flights">
{{- range .Flights}}
<li class="flight"{{if .Selected}} id="selected"{{end}} data-flight-id="{{.ID}}"><div>
<img class="icon" src="assets/Icons_calendar.svg"><div class="date">{{.Date}}</div>
<img class="icon" src="assets/Icons_clock.svg"><div class="duration">{{.Duration}}</div>
{{if .Triangle}}<img class="icon" src="assets/Icons_tri.svg">{{else}}<img class="icon" src="assets/Icons_op.svg">{{end}}
<div class="distance">{{.Distance}}</div>
</div></li>
{{- end}}
</ul>
</li>
{{- end}}
</ul>
</li>
{{- end}}
</ul>{{end}}`

const tmplPage = `
{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Logbook</title>
<style>
body{font-family:sans-serif;margin:0;display:flex;height:100vh}
#list{width:22rem;overflow-y:auto;border-right:1px solid #ccc}
#list ul{list-style:none;padding-left:.8rem;margin:0}
#list li.close>ul{display:none}
#list .group-header{cursor:pointer;display:flex;gap:.4rem;padding:.2rem 0}
#list li.flight>div{display:flex;gap:.3rem;cursor:pointer;padding:.15rem 0}
#list li.flight#selected>div{background:#e5e0fc}
.icon{height:1rem}
#main{flex:1;display:flex;flex-direction:column}
#chart{flex:1;border-top:1px solid #ccc}
.alert{background:#fdd;color:#900;padding:.4rem}
#map{flex:2;position:relative}
#map .credit{position:absolute;right:.3rem;bottom:.2rem;font-size:.7rem;color:#555}
</style>
</head>
<body>
<div id="list">
{{range .Alerts}}<div class="alert">{{.}}</div>{{end}}
{{if .Tree}}{{template "tree" .Tree}}{{end}}
</div>
<div id="main"><div id="map"></div><div id="chart"><img id="svg" src="/api/view/chart.svg" alt=""></div></div>
<script>
var chart=document.getElementById("svg");
var mapBox=document.getElementById("map");
var NS="http://www.w3.org/2000/svg";

function refreshChart(){chart.src="/api/view/chart.svg?t="+Date.now()}

function waitDisplayed(id,tries){
  fetch("/api/view/state").then(function(r){return r.json()}).then(function(st){
    if(st.displayed_id==id||tries<=0){location.reload();return}
    setTimeout(function(){waitDisplayed(id,tries-1)},100);
  });
}

function svgEl(name,attrs){
  var el=document.createElementNS(NS,name);
  for(var k in attrs){el.setAttribute(k,attrs[k])}
  return el;
}

function drawMap(snap){
  mapBox.textContent="";
  var w=mapBox.clientWidth||800,h=mapBox.clientHeight||600;
  var svg=svgEl("svg",{width:w,height:h,"class":"track"});
  var b=snap.bounds,span=Math.max(b.Max[0]-b.Min[0],b.Max[1]-b.Min[1]);
  var project=function(c){
    if(!(span>0)){return [w/2,h/2]}
    var s=Math.min(w,h)*0.9/span;
    return [w/2+(c[0]-(b.Min[0]+b.Max[0])/2)*s,h/2-(c[1]-(b.Min[1]+b.Max[1])/2)*s];
  };
  (snap.features||[]).forEach(function(f){
    var g=f.feature.geometry,st=f.style||{};
    if(g.type=="LineString"){
      var pts=g.coordinates.map(function(c){return project(c).join(",")}).join(" ");
      svg.appendChild(svgEl("polyline",{points:pts,fill:"none",stroke:st.color||"#3A00E5","stroke-width":st.weight||2,"stroke-opacity":st.opacity==null?1:st.opacity}));
    }else if(g.type=="Point"){
      var p=project(g.coordinates);
      svg.appendChild(svgEl("circle",{cx:p[0],cy:p[1],r:st.radius||5,fill:st.fillColor||st.color||"#3A00E5"}));
    }
  });
  var m=project(snap.marker.position);
  svg.appendChild(svgEl("circle",{id:"marker",cx:m[0],cy:m[1],r:6,fill:"#e50000"}));
  mapBox.appendChild(svg);
  var credit=document.createElement("div");
  credit.className="credit";
  credit.textContent="zoom "+snap.view.zoom+(snap.tiles.attribution?" | "+snap.tiles.attribution:"");
  mapBox.appendChild(credit);
  mapBox.project=project;
}

function refreshMap(){
  fetch("/api/view/overlay").then(function(r){return r.json()}).then(drawMap);
}

function moveMarker(lng,lat){
  var m=document.getElementById("marker");
  if(!m||!mapBox.project){return}
  var p=mapBox.project([lng,lat]);
  m.setAttribute("cx",p[0]);
  m.setAttribute("cy",p[1]);
}

document.querySelectorAll("#list .group-header").forEach(function(h){
  h.addEventListener("click",function(){
    fetch("/api/view/toggle?group="+h.dataset.group,{method:"POST"}).then(function(){location.reload()});
  });
});
document.querySelectorAll("#list li.flight").forEach(function(f){
  f.addEventListener("click",function(){
    var id=f.dataset.flightId;
    fetch("/api/view/select?id="+id,{method:"POST"}).then(function(){waitDisplayed(id,50)});
  });
});

var pending=false;
chart.addEventListener("mousemove",function(e){
  if(pending){return}
  pending=true;
  fetch("/api/view/pointer?x="+e.offsetX+"&y="+e.offsetY,{method:"POST"}).then(function(r){
    if(r.status==200){return r.json()}
  }).then(function(hit){
    if(hit){moveMarker(hit.sample.lng,hit.sample.lat)}
    refreshChart();
  }).finally(function(){pending=false});
});
chart.addEventListener("wheel",function(e){
  e.preventDefault();
  fetch("/api/view/wheel?delta="+(-e.deltaY),{method:"POST"}).then(refreshMap);
});
refreshMap();
</script>
</body>
</html>{{end}}`

var templates = template.Must(template.New("navigation").Parse(tmplTree + tmplPage))

// PageData is the input of RenderPage.
type PageData struct {
	Tree   *Tree
	Alerts []string
}

// Render writes the tree as nested lists.
func (t *Tree) Render(w io.Writer) error {
	if err := templates.ExecuteTemplate(w, "tree", t); err != nil {
		return fmt.Errorf("failed to render navigation tree: %w", err)
	}
	return nil
}

// RenderPage writes the full navigation page. A nil tree leaves the list empty.
func RenderPage(w io.Writer, data PageData) error {
	if err := templates.ExecuteTemplate(w, "page", data); err != nil {
		return fmt.Errorf("failed to render navigation page: %w", err)
	}
	return nil
}
