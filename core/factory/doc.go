// Package factory builds pluggable modules, such as metrics sinks, from a
// type name and a free-form settings map found in the configuration file.
//
// Implementations register a constructor under their type name, usually from
// an init function, and decode their settings with Decode:
//
//	sinks := factory.NewRegistry[metrics.MetricsSink]()
//	sinks.MustRegister("influx", func(conf map[string]any) (metrics.MetricsSink, error) {
//	    var c InfluxConfig
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return NewInfluxSink(c)
//	})
//	s, err := sinks.Create(factory.ModuleConfig{Type: "influx", Conf: raw})
package factory
