// Package dom defines the contract between the query engine and a live
// document runtime.
//
// A Document answers element queries with plain data: tag, text, attributes
// in DOM order and a viewport-relative bounding box. It also owns reference
// tags, the stable handles later tool calls use to address an element
// without re-querying. Attaching those handles to live nodes is a runtime
// capability; the engine only asks for them.
//
// Implementations live in subpackages: htmldoc evaluates static HTML in
// process, chromedoc evaluates scripts in a Chrome tab.
package dom
