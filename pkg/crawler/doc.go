// Package crawler runs a complete crawl of the results portal: launch the
// browser, log in, list every order and download each order's artifacts.
//
// A crawl is strictly serial over one session. Failures of a single order are
// recorded in the summary and never stop the crawl; launch, login and order
// listing failures end it.
package crawler
