// Package sim is a process-oriented discrete-event simulation kernel.
//
// An Environment keeps the simulated clock and a queue of pending events.
// Simulation logic is written as processes: plain Go functions that call
// Wait or Sleep whenever they need simulated time to pass or another process
// to signal them. The environment runs one process at a time, always the one
// whose event is earliest, so the same model with the same random draws
// always produces the same history.
//
//	env := sim.NewEnvironment()
//	env.Start("clock", func(p *sim.Process) error {
//	    for i := 0; i < 3; i++ {
//	        if err := p.Sleep(1); err != nil {
//	            return err
//	        }
//	        fmt.Println("tick", p.Env().Now())
//	    }
//	    return nil
//	})
//	_ = env.Run()
package sim
