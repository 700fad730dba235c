// Package mqtt connects the node to the fleet broker.
//
// Every node publishes its state under <prefix>/<node>/<key> and
// subscribes to <prefix>/# so the whole fleet sees every update. The
// onboard key is special: it is retained on connect and flipped to 0 by
// the broker's last will when a node drops off.
package mqtt

import (
	"fmt"
	"regexp"

	"homelink/internal/errors"
)

// Topic is a parsed fleet topic.
type Topic struct {
	Prefix string
	Node   string
	Key    string
}

// String rebuilds the wire form.
func (t Topic) String() string {
	return fmt.Sprintf("%s/%s/%s", t.Prefix, t.Node, t.Key)
}

// BuildTopic renders <prefix>/<node>/<key>.
func BuildTopic(prefix, node, key string) string {
	return Topic{Prefix: prefix, Node: node, Key: key}.String()
}

// topicParser matches topics under one fleet prefix.
type topicParser struct {
	prefix string
	re     *regexp.Regexp
}

func newTopicParser(prefix string) *topicParser {
	return &topicParser{
		prefix: prefix,
		re:     regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `/([^/]+)/([^/]+)$`),
	}
}

// Parse extracts node and key from a wire topic. Topics outside the
// two-segment scheme (or under another prefix) are rejected.
func (p *topicParser) Parse(topic string) (Topic, error) {
	m := p.re.FindStringSubmatch(topic)
	if m == nil {
		return Topic{}, fmt.Errorf("%w: %q", errors.ErrBadTopic, topic)
	}
	return Topic{Prefix: p.prefix, Node: m[1], Key: m[2]}, nil
}
