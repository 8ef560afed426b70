package toolbox

// y is the ground truth output.  Length n
// a is the network's forward output.  Length n
//
// Returns (1/n) * sum((a_i - y_i)^2).
func MeanSquaredErrorLoss(y, a []float32) float32 {
	if len(y) != len(a) {
		panic("y and a must have same length")
	}

	loss := float32(0)
	for i := range y {
		diff := a[i] - y[i]
		loss += diff * diff
	}

	return loss / float32(len(a))
}

// y is the ground truth output.  Length n
// a is the network's forward output.  Length n
// dJda (output) is storage for the gradient of the loss wrt a.  Length n
func MeanSquaredErrorLossGradient(y, a, dJda []float32) {
	if len(y) != len(a) {
		panic("y and a must have same length")
	}
	if len(y) != len(dJda) {
		panic("y and dJda must have same length")
	}

	n := float32(len(a))
	for i := range a {
		dJda[i] = 2 * (a[i] - y[i]) / n
	}
}
