package chromedoc

// RefAttribute is the DOM attribute that carries an element's reference tag.
const RefAttribute = "data-domquery-ref"

// prelude defines g (the registry) and describe(el) for the scripts below.
const prelude = `
const g = window.__domquery || (window.__domquery = {seq: 0, refSeq: 0, ids: new WeakMap(), nodes: new Map()});
const describe = (el) => {
  let id = g.ids.get(el);
  if (id === undefined) {
    id = ++g.seq;
    g.ids.set(el, id);
    g.nodes.set(id, new WeakRef(el));
  }
  const attributes = {};
  for (const a of el.attributes) {
    if (a.name !== '` + RefAttribute + `') attributes[a.name] = a.value;
  }
  let directText = '';
  for (const c of el.childNodes) {
    if (c.nodeType === Node.TEXT_NODE) directText += c.textContent;
  }
  const r = el.getBoundingClientRect();
  return {
    id, tagName: el.tagName, text: el.textContent || '', directText, attributes,
    rect: {top: r.top, left: r.left, width: r.width, height: r.height},
  };
};
`

const urlScript = `location.href`

const viewportScript = `({top: 0, left: 0, width: window.innerWidth, height: window.innerHeight})`

// querySelectorAllScript takes a JSON-encoded selector.
const querySelectorAllScript = `(() => {` + prelude + `
  return Array.from(document.querySelectorAll(%s), describe);
})()`

const elementsScript = `(() => {` + prelude + `
  return Array.from(document.getElementsByTagName('*'), describe);
})()`

// tagScript takes a JSON-encoded array of IDs. Unknown or collected nodes
// map to null.
const tagScript = `(() => {` + prelude + `
  return %s.map((id) => {
    const ref = g.nodes.get(id);
    const el = ref && ref.deref();
    if (!el || !el.isConnected) return null;
    let tag = el.getAttribute('` + RefAttribute + `');
    if (!tag) {
      tag = 'e' + (++g.refSeq);
      el.setAttribute('` + RefAttribute + `', tag);
    }
    return tag;
  });
})()`
