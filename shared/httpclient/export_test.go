package httpclient

var RandomJitter = randomJitter
