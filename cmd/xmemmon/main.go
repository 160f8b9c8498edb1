package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/xmem.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/xmem.go/pkg/l1/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/"
	device  string
	asJSON  bool
)

func init() {
	if val := os.Getenv("XMEM_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&device, "id", device, "Only watch this device.")
	flag.BoolVar(&asJSON, "json", asJSON, "Print envelopes in JSON.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	defer q.Close()

	q.Sub("+/"+mqtt.TopicMeta, func(topic string, payload []byte) {
		if device == "" || strings.HasPrefix(topic, device+"/") {
			log.Printf("%s: %s", topic, string(payload))
		}
	})
	mqtt.WatchMessages(q, device, func(env *msgs.Envelope) {
		if !asJSON {
			log.Println(env.String())
			return
		}
		out, err := env.JSON()
		if err != nil {
			log.Printf("%s: %v", env.Device, err)
			return
		}
		log.Println(out)
	})
	<-(chan struct{})(nil)
}
