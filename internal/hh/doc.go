// Package hh provides a thin typed client for the HeadHunter (hh.ru) REST API.
//
// Every request carries the caller's OAuth bearer token and the HH-User-Agent
// header the API requires. The client holds no token state of its own; tool
// handlers construct one per request from the token resolved by the OAuth
// middleware.
package hh
