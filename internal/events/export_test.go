package events

// NewKafkaPublisherWith permite a los tests inyectar un writer falso.
var NewKafkaPublisherWith = newKafkaPublisherWith
