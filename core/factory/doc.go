// Package factory instantiates pluggable modules (metrics sinks, routing
// providers, travel-time caches) from configuration. A module is selected by
// its type string; its raw settings are decoded into the factory's own struct.
//
//	providers := factory.NewRegistry[routing.Provider]()
//	providers.Register("haversine", func(conf map[string]any) (routing.Provider, error) {
//	    var c struct{ SpeedKMH float64 `json:"speed_kmh"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return HaversineProvider{SpeedKMH: c.SpeedKMH}, nil
//	})
//	p, err := providers.Create(factory.ModuleConfig{Type: "haversine"})
package factory
