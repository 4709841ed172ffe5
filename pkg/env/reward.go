package env

import "math"

// shapeReward scores one transition and returns the updated episode state.
// It is a pure function of its inputs plus the shaping counters carried in
// the state; nothing else is read or written.
//
// Order of terms:
//  1. progress: alpha*delta when the robot moved closer, beta*delta when it
//     moved away (delta is negative there, so the term is a penalty;
//     the weighting is asymmetric on purpose)
//  2. best-distance / improvement-streak bookkeeping
//  3. collision penalty on every colliding step
//  4. unconditional per-step cost
//  5. stationary tracking: the penalty fires once when the counter exceeds
//     the cap, then the counter restarts; any real movement also clears it
func shapeReward(cfg ShapingConfig, prevDist, curDist float64, colliding bool, positionDelta float64, st EpisodeState) (float64, EpisodeState) {
	delta := prevDist - curDist

	var reward float64
	if delta > 0 {
		reward = cfg.Alpha * delta
	} else {
		reward = cfg.Beta * delta
	}

	if curDist < st.BestDistance {
		st.BestDistance = curDist
		st.StepsSinceImprovement = 0
	} else {
		st.StepsSinceImprovement++
	}

	if colliding {
		reward -= cfg.CollisionPenalty
	}

	reward -= cfg.StepCost

	if math.Abs(positionDelta) < cfg.StationaryThreshold {
		st.StationarySteps++
		if st.StationarySteps > cfg.MaxStationarySteps {
			reward -= cfg.StationaryPenalty
			st.StationarySteps = 0
		}
	} else {
		st.StationarySteps = 0
	}

	return reward, st
}
