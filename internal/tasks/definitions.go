package tasks

// DefineTasks registers all available tasks
func DefineTasks() {
	RegisterHandler(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)
	RegisterHandler(ReconcilePendingPaymentsTask.TaskID(), ReconcilePendingPaymentsTask.HandleExecution)
	RegisterHandler(SendOrderStatusEmailTask.TaskID(), SendOrderStatusEmailTask.HandleExecution)
}
