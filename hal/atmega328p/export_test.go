package atmega328p

var Divisor = divisor
