package fp

func Max[T Number](numbers ...T) T { //nolint:ireturn
	var largest T

	for idx, number := range numbers {
		if idx == 0 || number > largest {
			largest = number
		}
	}

	return largest
}
